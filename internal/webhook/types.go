package webhook

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventAttendanceLogged = "attendance.logged"

	SignatureHeader = "X-Ponto-Signature"
	EventHeader     = "X-Ponto-Event"
	DeliveryHeader  = "X-Ponto-Delivery"
)

// Config describes the single receiver every event is posted to.
type Config struct {
	URL         string
	Secret      string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	QueueSize   int
}

func DefaultConfig(url, secret string) Config {
	return Config{
		URL:         url,
		Secret:      secret,
		Timeout:     10 * time.Second,
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		QueueSize:   256,
	}
}

// Job is one pending delivery. The payload is encoded once and re-sent
// unchanged on every attempt, so the signature stays stable.
type Job struct {
	ID        uuid.UUID
	EventType string
	Payload   []byte
	Attempts  int
	LastError string
	CreatedAt time.Time
}

type EventPayload struct {
	ID        uuid.UUID   `json:"id"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
