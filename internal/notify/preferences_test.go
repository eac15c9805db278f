package notify

import "testing"

func TestCategoryEnabled(t *testing.T) {
	cases := []struct {
		name  string
		prefs Preferences
		typ   EventType
		want  bool
	}{
		{name: "no preferences", typ: TypeBudgetExceeded, want: true},
		{name: "unknown type always enabled", prefs: Preferences{StageUpdates: boolPtr(false), BudgetAlerts: boolPtr(false)}, typ: "photo_uploaded", want: true},
		{name: "specific flag off", prefs: Preferences{TodoReminders: boolPtr(false)}, typ: TypeTaskDueReminder, want: false},
		{name: "overdue flag off", prefs: Preferences{OverdueReminders: boolPtr(false)}, typ: TypeTaskOverdue, want: false},
		{name: "todo flag does not cover overdue", prefs: Preferences{TodoReminders: boolPtr(false)}, typ: TypeTaskOverdue, want: true},
		{name: "stage fallback off", prefs: Preferences{StageUpdates: boolPtr(false)}, typ: TypeStageStarting, want: false},
		{name: "stage fallback off completed", prefs: Preferences{StageUpdates: boolPtr(false)}, typ: TypeStageCompleted, want: false},
		{name: "specific overrides fallback", prefs: Preferences{StageUpdates: boolPtr(false), StageStarting: boolPtr(true)}, typ: TypeStageStarting, want: true},
		{name: "specific off despite fallback on", prefs: Preferences{StageUpdates: boolPtr(true), StageCompleted: boolPtr(false)}, typ: TypeStageCompleted, want: false},
		{name: "budget fallback off", prefs: Preferences{BudgetAlerts: boolPtr(false)}, typ: TypeBudgetWarning, want: false},
		{name: "budget specific on", prefs: Preferences{BudgetAlerts: boolPtr(false), BudgetExceeded: boolPtr(true)}, typ: TypeBudgetExceeded, want: true},
		{name: "channel flags ignored for category", prefs: Preferences{PushEnabled: boolPtr(false), EmailEnabled: boolPtr(false)}, typ: TypeBudgetWarning, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.prefs.CategoryEnabled(tc.typ); got != tc.want {
				t.Fatalf("CategoryEnabled(%q) = %v, want %v", tc.typ, got, tc.want)
			}
		})
	}
}

func TestChannelEnabledDefaults(t *testing.T) {
	var p Preferences
	if !p.ChannelEnabled(ChannelPush) || !p.ChannelEnabled(ChannelEmail) {
		t.Fatal("channels should default to enabled")
	}
	p.EmailEnabled = boolPtr(false)
	if p.ChannelEnabled(ChannelEmail) {
		t.Fatal("email should be disabled")
	}
	if !p.ChannelEnabled(ChannelPush) {
		t.Fatal("push should stay enabled")
	}
	if p.ChannelEnabled("sms") {
		t.Fatal("unknown channel should be disabled")
	}
}

func TestParsePreferences(t *testing.T) {
	p, err := ParsePreferences([]byte(`{"stageUpdates": false, "pushEnabled": true, "legacyKey": 1}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.StageUpdates == nil || *p.StageUpdates {
		t.Fatalf("stageUpdates = %v, want false", p.StageUpdates)
	}
	if p.StageStarting != nil {
		t.Fatal("absent key should stay nil")
	}
	if p.CategoryEnabled(TypeStageStarting) {
		t.Fatal("stage_starting should fall back to stageUpdates")
	}

	for _, raw := range []string{"", "null", "{}"} {
		p, err := ParsePreferences([]byte(raw))
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !p.CategoryEnabled(TypeBudgetExceeded) {
			t.Fatalf("parse %q: want fail-open defaults", raw)
		}
	}

	if _, err := ParsePreferences([]byte(`{"pushEnabled": "yes"}`)); err == nil {
		t.Fatal("expected error for wrong flag type")
	}
}
