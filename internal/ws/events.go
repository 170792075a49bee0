package ws

import (
	"time"
)

type EventType string

const (
	EventRecognition      EventType = "recognition"
	EventFaceRegistered   EventType = "face.registered"
	EventFaceDeleted      EventType = "face.deleted"
	EventAttendanceLogged EventType = "attendance.logged"
)

// Event is the envelope every websocket message is wrapped in.
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
