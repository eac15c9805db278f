package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedEvent = errors.New("malformed event")
var ErrUserNotFound = errors.New("user not found")

type EventType string

const (
	TypeTaskDueReminder EventType = "task_due_reminder"
	TypeTaskOverdue     EventType = "task_overdue"
	TypeStageStarting   EventType = "stage_starting"
	TypeStageCompleted  EventType = "stage_completed"
	TypeBudgetWarning   EventType = "budget_warning"
	TypeBudgetExceeded  EventType = "budget_exceeded"
)

// Known reports whether t is one of the event types producers emit.
func (t EventType) Known() bool {
	switch t {
	case TypeTaskDueReminder, TypeTaskOverdue, TypeStageStarting,
		TypeStageCompleted, TypeBudgetWarning, TypeBudgetExceeded:
		return true
	}
	return false
}

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Event is the queue payload written by producers.
type Event struct {
	UserID      string         `json:"userId"`
	Type        EventType      `json:"type"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Data        map[string]any `json:"data,omitempty"`
	RelatedType string         `json:"relatedType,omitempty"`
	RelatedID   string         `json:"relatedId,omitempty"`
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: userId required", ErrMalformedEvent)
	}
	if strings.TrimSpace(string(e.Type)) == "" {
		return fmt.Errorf("%w: type required", ErrMalformedEvent)
	}
	return nil
}

// DecodeEvent parses and validates a raw queue payload.
func DecodeEvent(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// ProjectName returns data.projectName when it is a non-empty string.
func (e Event) ProjectName() string {
	return e.dataString("projectName")
}

func (e Event) ProjectID() string {
	return e.dataString("projectId")
}

func (e Event) dataString(key string) string {
	v, ok := e.Data[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
