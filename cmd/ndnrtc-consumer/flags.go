package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version = "dev"

// cliConfig holds user-supplied flag values prior to translation into
// config.Config so main.go can validate and map.
type cliConfig struct {
	basePrefix      string
	streamName      string
	threadName      string
	mediaType       string
	logLevel        string
	segmentSize     int
	targetBufferMs  int
	interestLife    int64
	maxRtx          int
	fecEnabled      bool
	fecRatio        float64
	rtxEnabled      bool
	avSync          bool
	chaseStable     int
	hookWebhooks    []string
	hookStdio       bool
	hookTimeout     string
	hookConcurrency int
	showVersion     bool
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("ndnrtc-consumer", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &cliConfig{}
	var hookWebhooks stringSliceFlag

	fs.StringVar(&cfg.basePrefix, "prefix", "", "base NDN name prefix the producer publishes under (required)")
	fs.StringVar(&cfg.streamName, "stream", "", "stream name to fetch (required)")
	fs.StringVar(&cfg.threadName, "thread", "", "thread name within the stream to fetch (required)")
	fs.StringVar(&cfg.mediaType, "media", "video", "media type of the thread: video|audio")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	fs.IntVar(&cfg.segmentSize, "segment-size", 8000, "target wire length for data segments")
	fs.IntVar(&cfg.targetBufferMs, "target-buffer-ms", 1000, "jitter buffer target, in milliseconds")
	fs.Int64Var(&cfg.interestLife, "interest-lifetime-ms", 1000, "Interest lifetime floor, in milliseconds")
	fs.IntVar(&cfg.maxRtx, "max-rtx", 3, "per-segment retransmission cap")
	fs.BoolVar(&cfg.fecEnabled, "fec", true, "request parity segments and FEC-decode incomplete samples")
	fs.Float64Var(&cfg.fecRatio, "fec-ratio", 0.2, "parity segment ratio when FEC is enabled")
	fs.BoolVar(&cfg.rtxEnabled, "rtx", true, "retransmit individually timed-out segments")
	fs.BoolVar(&cfg.avSync, "av-sync", false, "set config UseAvSync (no component reads it; playout does not consult sync lists)")
	fs.IntVar(&cfg.chaseStable, "chase-stable-threshold", 3, "consecutive stable arrivals required before Adjust -> Fetch")
	fs.Var(&hookWebhooks, "hook-webhook", "status-event webhook URL (can be specified multiple times)")
	fs.BoolVar(&cfg.hookStdio, "hook-stdio", false, "print a structured NDNRTC_EVENT: line per status event to stderr")
	fs.StringVar(&cfg.hookTimeout, "hook-timeout", "30s", "timeout for hook execution")
	fs.IntVar(&cfg.hookConcurrency, "hook-concurrency", 10, "maximum concurrent hook executions")
	fs.BoolVar(&cfg.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.hookWebhooks = hookWebhooks

	if cfg.showVersion {
		return cfg, nil
	}

	if cfg.basePrefix == "" {
		return nil, errors.New("-prefix is required")
	}
	if cfg.streamName == "" {
		return nil, errors.New("-stream is required")
	}
	if cfg.threadName == "" {
		return nil, errors.New("-thread is required")
	}
	switch cfg.mediaType {
	case "video", "audio":
	default:
		return nil, fmt.Errorf("invalid -media %q, must be video or audio", cfg.mediaType)
	}
	switch cfg.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid -log-level %q", cfg.logLevel)
	}
	if cfg.segmentSize <= 0 || cfg.segmentSize > 65536 {
		return nil, errors.New("-segment-size must be between 1 and 65536")
	}
	if cfg.hookTimeout != "" {
		if _, err := time.ParseDuration(cfg.hookTimeout); err != nil {
			return nil, fmt.Errorf("invalid -hook-timeout %q: %w", cfg.hookTimeout, err)
		}
	}
	if cfg.hookConcurrency < 1 || cfg.hookConcurrency > 100 {
		return nil, errors.New("-hook-concurrency must be between 1 and 100")
	}
	for _, u := range cfg.hookWebhooks {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return nil, fmt.Errorf("invalid -hook-webhook %q: must be an http(s) URL", u)
		}
	}

	return cfg, nil
}

// stringSliceFlag implements flag.Value for multiple string values.
type stringSliceFlag []string

func (s *stringSliceFlag) String() string { return strings.Join(*s, ", ") }

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}
