package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ndnrtc-go/receiver/internal/logger"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/config"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/dispatch"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/face/fake"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/hooks"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/session"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.logLevel); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.WithSession(logger.Logger(), uuid.NewString()).With("component", "cli")

	rcCfg := config.New(
		config.WithSegmentSize(cfg.segmentSize),
		config.WithTargetBufferMs(cfg.targetBufferMs),
		config.WithInterestLifetimeMs(cfg.interestLife),
		config.WithMaxRtx(cfg.maxRtx),
		config.WithFEC(cfg.fecEnabled, cfg.fecRatio),
		config.WithRtx(cfg.rtxEnabled),
		config.WithAvSync(cfg.avSync),
		config.WithChaseStableThreshold(cfg.chaseStable),
	)

	hookMgr := hooks.NewManager(hooks.Config{Concurrency: cfg.hookConcurrency}, log.With("component", "hooks"))
	if cfg.hookStdio {
		hookMgr.Register(hooks.NewStdioObserver())
	}
	timeout, err := time.ParseDuration(cfg.hookTimeout)
	if err != nil {
		timeout = 30 * time.Second
	}
	for _, url := range cfg.hookWebhooks {
		hookMgr.Register(hooks.NewWebhookObserver(url, timeout, log.With("component", "hooks")))
	}

	media := name.MediaVideo
	decodeMeta := session.DecodeVideoThreadMeta
	if cfg.mediaType == "audio" {
		media = name.MediaAudio
		decodeMeta = session.DecodeAudioThreadMeta
	}

	base := name.Name{}
	for _, c := range splitPrefix(cfg.basePrefix) {
		base = append(base, name.Comp(c))
	}
	stream := name.StreamPrefix(base, media, cfg.streamName)
	thread := name.ThreadPrefix(stream, cfg.threadName)

	loop := dispatch.NewLoop(256)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go loop.Run(ctx)

	// No NDN transport library is wired into this module (face.Face is a
	// Non-goal per spec.md §1: "specified only at the interfaces the
	// receiver consumes"). The in-memory fake.Face stands in until a real
	// NDN client is connected here.
	face := fake.NewFace(loop, fake.NewDataCache(), 5*time.Millisecond, 2*time.Millisecond)

	sess := session.New(rcCfg, thread, cfg.threadName, media, face, loop, nil, hookMgr, decodeMeta, log.With("stream", cfg.streamName, "thread", cfg.threadName))

	loop.Post(sess.Start)
	log.Info("consumer started", "stream", cfg.streamName, "thread", cfg.threadName, "media", cfg.mediaType, "version", version)

	<-ctx.Done()
	log.Info("shutdown signal received")

	done := make(chan struct{})
	loop.Post(func() {
		sess.Stop()
		close(done)
	})

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	select {
	case <-done:
		log.Info("consumer stopped cleanly")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout")
	}
}

// splitPrefix splits a "/a/b/c" style stream prefix into components,
// ignoring any leading or trailing empty segments.
func splitPrefix(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '/' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
