package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/saturnino-fabrica-de-software/ponto/internal/recognition"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

// formatEvent renders one recognition event as a console line.
func formatEvent(ev recognition.Event) string {
	ts := dimColor.Sprint(ev.Timestamp.Format("15:04:05"))

	switch ev.Type {
	case recognition.EventStarted:
		return fmt.Sprintf("%s %s session %s", ts, infoColor.Sprint("started"), ev.SessionID)
	case recognition.EventWaiting:
		return fmt.Sprintf("%s %s", ts, dimColor.Sprint("waiting"))
	case recognition.EventNoFace:
		return fmt.Sprintf("%s %s frame %d", ts, dimColor.Sprint("no face"), ev.Frame)
	case recognition.EventUnauthorized:
		return fmt.Sprintf("%s %s %d face(s) not registered", ts, warnColor.Sprint("unauthorized"), ev.Regions)
	case recognition.EventMatched:
		if ev.Error != "" {
			return fmt.Sprintf("%s %s %s (distance %.3f) but logging failed: %s",
				ts, warnColor.Sprint("granted"), ev.Name, ev.Distance, ev.Error)
		}
		logged := dimColor.Sprint("already logged")
		if ev.Logged {
			logged = successColor.Sprintf("logged #%d", ev.RecordID)
		}
		return fmt.Sprintf("%s %s %s (distance %.3f) %s", ts, successColor.Sprint("granted"), ev.Name, ev.Distance, logged)
	case recognition.EventCaptureFailed:
		return fmt.Sprintf("%s %s %s", ts, warnColor.Sprint("capture failed"), ev.Error)
	case recognition.EventError:
		return fmt.Sprintf("%s %s frame %d: %s", ts, warnColor.Sprint("error"), ev.Frame, ev.Error)
	case recognition.EventStopped:
		return fmt.Sprintf("%s %s %s", ts, errorColor.Sprint("stopped"), ev.Error)
	default:
		return fmt.Sprintf("%s %s", ts, ev.Type)
	}
}

// isNotable reports events shown in quiet mode.
func isNotable(t recognition.EventType) bool {
	switch t {
	case recognition.EventMatched, recognition.EventStopped, recognition.EventError, recognition.EventCaptureFailed:
		return true
	}
	return false
}
