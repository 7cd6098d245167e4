package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestLoopRunsPostedWorkInOrder(t *testing.T) {
	is := is.New(t)
	l := NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	is.Equal(len(order), 5)
	for i, v := range order {
		is.Equal(v, i)
	}
}

func TestLoopStopsOnContextCancel(t *testing.T) {
	l := NewLoop(1)
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(runDone)
	}()
	cancel()
	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestTryPostDropsWhenFull(t *testing.T) {
	is := is.New(t)
	l := NewLoop(1)
	block := make(chan struct{})
	// Occupy the single buffered slot with work that won't complete
	// until we release it, without a consumer running yet.
	is.True(l.TryPost(func() { <-block }))
	is.True(!l.TryPost(func() {})) // buffer full, no consumer draining yet
	close(block)
}
