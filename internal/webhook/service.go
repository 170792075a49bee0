package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Service posts signed payloads to the configured receiver.
type Service struct {
	config Config
	client *http.Client
}

func NewService(config Config) *Service {
	return &Service{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Send makes one delivery attempt. Any transport error or non-2xx status is
// returned so the worker can retry.
func (s *Service) Send(ctx context.Context, job *Job) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(job.Payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(s.config.Secret, job.Payload))
	req.Header.Set(EventHeader, job.EventType)
	req.Header.Set(DeliveryHeader, job.ID.String())
	req.Header.Set("User-Agent", "Ponto-Webhook/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("post webhook: HTTP %d", resp.StatusCode)
	}
	return nil
}
