package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/observer"
)

// WebhookObserver POSTs a JSON event body on every callback, replacing
// the teacher's webhook_hook.
type WebhookObserver struct {
	url     string
	client  *http.Client
	logger  *slog.Logger
	headers map[string]string
}

// NewWebhookObserver builds a WebhookObserver targeting url.
func NewWebhookObserver(url string, timeout time.Duration, logger *slog.Logger) *WebhookObserver {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookObserver{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type webhookBody struct {
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
	Kind   string `json:"kind,omitempty"`
	SeqNo  uint32 `json:"seq_no,omitempty"`
	Thread string `json:"thread,omitempty"`
}

func (w *WebhookObserver) post(body webhookBody) {
	payload, err := json.Marshal(body)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		w.logger.Error("webhook observer: build request failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Error("webhook observer: request failed", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.logger.Error("webhook observer: non-2xx response", "status", resp.StatusCode)
	}
}

func (w *WebhookObserver) OnStatusChanged(status observer.Status) {
	w.post(webhookBody{Type: "status_changed", Status: status.String()})
}

func (w *WebhookObserver) OnRebuffering() {
	w.post(webhookBody{Type: "rebuffering"})
}

func (w *WebhookObserver) OnPlaybackEvent(kind observer.PlaybackEventKind, seqNo uint32) {
	w.post(webhookBody{Type: "playback_event", Kind: kind.String(), SeqNo: seqNo})
}

func (w *WebhookObserver) OnThreadSwitched(name string) {
	w.post(webhookBody{Type: "thread_switched", Thread: name})
}

var _ observer.IConsumerObserver = (*WebhookObserver)(nil)
