package hooks

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/observer"
)

// StdioObserver prints a structured status line per event to stderr,
// replacing the teacher's stdio_hook's RTMP_EVENT: lines with an
// NDNRTC_EVENT: prefix.
type StdioObserver struct {
	output *os.File
}

// NewStdioObserver builds a StdioObserver writing to stderr.
func NewStdioObserver() *StdioObserver { return &StdioObserver{output: os.Stderr} }

type stdioEvent struct {
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
	Kind   string `json:"kind,omitempty"`
	SeqNo  uint32 `json:"seq_no,omitempty"`
	Thread string `json:"thread,omitempty"`
}

func (s *StdioObserver) write(e stdioEvent) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(s.output, "NDNRTC_EVENT: %s\n", b)
}

func (s *StdioObserver) OnStatusChanged(status observer.Status) {
	s.write(stdioEvent{Type: "status_changed", Status: status.String()})
}

func (s *StdioObserver) OnRebuffering() {
	s.write(stdioEvent{Type: "rebuffering"})
}

func (s *StdioObserver) OnPlaybackEvent(kind observer.PlaybackEventKind, seqNo uint32) {
	s.write(stdioEvent{Type: "playback_event", Kind: kind.String(), SeqNo: seqNo})
}

func (s *StdioObserver) OnThreadSwitched(name string) {
	s.write(stdioEvent{Type: "thread_switched", Thread: name})
}

var _ observer.IConsumerObserver = (*StdioObserver)(nil)
