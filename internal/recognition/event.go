package recognition

import (
	"fmt"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type EventType string

const (
	// EventStarted opens a session
	EventStarted EventType = "started"
	// EventNoFace: the frame had no face region
	EventNoFace EventType = "no_face"
	// EventUnauthorized: faces were found but none matched
	EventUnauthorized EventType = "unauthorized"
	// EventMatched: a registered face was recognized
	EventMatched EventType = "matched"
	// EventCaptureFailed: one frame could not be read, the session goes on
	EventCaptureFailed EventType = "capture_failed"
	// EventError: a frame could not be analyzed, the session goes on
	EventError EventType = "error"
	// EventStopped: the session ended on an error
	EventStopped EventType = "stopped"
	// EventWaiting: the controller is idle again
	EventWaiting EventType = "waiting"
)

// Event is one observation of the recognition cycle. Events of a session
// are delivered in the order they were produced.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Frame     uint64    `json:"frame,omitempty"`
	Regions   int       `json:"regions,omitempty"`
	FaceID    int64     `json:"face_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Photo     string    `json:"photo,omitempty"`
	Distance  float64   `json:"distance,omitempty"`
	Logged    bool      `json:"logged,omitempty"`
	RecordID  int64     `json:"record_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Policy decides how many regions of one frame may produce a match.
type Policy string

const (
	// PolicyFirst stops at the first accepted region, in detector order
	PolicyFirst Policy = "first"
	// PolicyAll evaluates and logs every region
	PolicyAll Policy = "all"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFirst, "":
		return PolicyFirst, nil
	case PolicyAll:
		return PolicyAll, nil
	}
	return "", fmt.Errorf("unknown match policy %q", s)
}
