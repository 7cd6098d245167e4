package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/observer"
)

// ShellObserver execs a configured script on rebuffering and playback
// events, passing event fields as environment variables, replacing the
// teacher's shell_hook.
type ShellObserver struct {
	scriptPath string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewShellObserver builds a ShellObserver invoking scriptPath via bash.
func NewShellObserver(scriptPath string, timeout time.Duration, logger *slog.Logger) *ShellObserver {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ShellObserver{scriptPath: scriptPath, timeout: timeout, logger: logger}
}

func (s *ShellObserver) run(env []string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "/bin/bash", s.scriptPath)
	cmd.Env = append(cmd.Env, env...)
	if err := cmd.Run(); err != nil {
		s.logger.Error("shell observer script failed", "script", s.scriptPath, "error", err)
	}
}

func (s *ShellObserver) OnStatusChanged(status observer.Status) {}

func (s *ShellObserver) OnRebuffering() {
	s.run([]string{"NDNRTC_EVENT_TYPE=rebuffering"})
}

func (s *ShellObserver) OnPlaybackEvent(kind observer.PlaybackEventKind, seqNo uint32) {
	s.run([]string{
		"NDNRTC_EVENT_TYPE=playback_event",
		fmt.Sprintf("NDNRTC_KIND=%s", kind.String()),
		fmt.Sprintf("NDNRTC_SEQ_NO=%d", seqNo),
	})
}

func (s *ShellObserver) OnThreadSwitched(name string) {}

var _ observer.IConsumerObserver = (*ShellObserver)(nil)
