package notify

import "encoding/json"

// Preferences mirrors profiles.notification_preferences. Every flag is
// optional; nil means the user never set it.
type Preferences struct {
	PushEnabled  *bool `json:"pushEnabled,omitempty"`
	EmailEnabled *bool `json:"emailEnabled,omitempty"`

	TodoReminders    *bool `json:"todoReminders,omitempty"`
	OverdueReminders *bool `json:"overdueReminders,omitempty"`
	StageStarting    *bool `json:"stageStarting,omitempty"`
	StageCompleted   *bool `json:"stageCompleted,omitempty"`
	BudgetWarning    *bool `json:"budgetWarning,omitempty"`
	BudgetExceeded   *bool `json:"budgetExceeded,omitempty"`

	// broader flags kept from older clients
	StageUpdates *bool `json:"stageUpdates,omitempty"`
	BudgetAlerts *bool `json:"budgetAlerts,omitempty"`
}

// ParsePreferences decodes a stored blob. An empty blob yields defaults.
func ParsePreferences(raw []byte) (Preferences, error) {
	var p Preferences
	if len(raw) == 0 || string(raw) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Preferences{}, err
	}
	return p, nil
}

// CategoryEnabled resolves the category decision for an event type:
// specific flag, then the broader fallback flag, then enabled.
func (p Preferences) CategoryEnabled(t EventType) bool {
	var specific, fallback *bool
	switch t {
	case TypeTaskDueReminder:
		specific = p.TodoReminders
	case TypeTaskOverdue:
		specific = p.OverdueReminders
	case TypeStageStarting:
		specific, fallback = p.StageStarting, p.StageUpdates
	case TypeStageCompleted:
		specific, fallback = p.StageCompleted, p.StageUpdates
	case TypeBudgetWarning:
		specific, fallback = p.BudgetWarning, p.BudgetAlerts
	case TypeBudgetExceeded:
		specific, fallback = p.BudgetExceeded, p.BudgetAlerts
	default:
		return true
	}
	return resolve(specific, fallback)
}

func (p Preferences) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelPush:
		return resolve(p.PushEnabled, nil)
	case ChannelEmail:
		return resolve(p.EmailEnabled, nil)
	}
	return false
}

func resolve(flags ...*bool) bool {
	for _, f := range flags {
		if f != nil {
			return *f
		}
	}
	return true
}
