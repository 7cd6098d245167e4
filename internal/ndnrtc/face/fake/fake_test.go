package fake

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/dispatch"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/face"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
)

func TestFaceDeliversCachedData(t *testing.T) {
	is := is.New(t)
	loop := dispatch.NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	cache := NewDataCache()
	n := name.Name{name.Comp("p"), name.Comp("stream")}
	cache.Put(face.Data{Name: n, Content: []byte("hello")})

	f := NewFace(loop, cache, 5*time.Millisecond, 2*time.Millisecond)

	var mu sync.Mutex
	var got *face.Data
	done := make(chan struct{})
	err := f.Express(face.Interest{Name: n, LifetimeMs: 1000}, func(i face.Interest, d face.Data) {
		mu.Lock()
		got = &d
		mu.Unlock()
		close(done)
	}, func(face.Interest) {
		t.Error("unexpected timeout")
	})
	is.NoErr(err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onData never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	is.True(got != nil)
	is.True(string(got.Content) == "hello")
}

func TestFaceTimesOutUncachedInterest(t *testing.T) {
	is := is.New(t)
	loop := dispatch.NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	cache := NewDataCache()
	f := NewFace(loop, cache, 5*time.Millisecond, 0)

	n := name.Name{name.Comp("p"), name.Comp("missing")}
	done := make(chan struct{})
	err := f.Express(face.Interest{Name: n, LifetimeMs: 20}, func(face.Interest, face.Data) {
		t.Error("unexpected data")
	}, func(face.Interest) {
		close(done)
	})
	is.NoErr(err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onTimeout never fired")
	}
}

func TestDelayQueueJitterBounds(t *testing.T) {
	is := is.New(t)
	loop := dispatch.NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	q := NewDelayQueue(loop)
	start := time.Now()
	done := make(chan time.Duration, 1)
	q.Schedule(30*time.Millisecond, 10*time.Millisecond, func() {
		done <- time.Since(start)
	})

	select {
	case elapsed := <-done:
		is.True(elapsed >= 15*time.Millisecond) // well under the lower bound with scheduling slack
	case <-time.After(time.Second):
		t.Fatal("delay queue never fired")
	}
}
