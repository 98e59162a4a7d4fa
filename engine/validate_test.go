package engine

import (
	"strings"
	"testing"
)

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	if err := ValidateSettings(DefaultSettings(), nil); err != nil {
		t.Errorf("ValidateSettings(DefaultSettings()) failed: %v", err)
	}
}

func TestValidateSettingsRejections(t *testing.T) {
	ev := newTestEvaluator(t)

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantSub string
	}{
		{
			name:    "negative autoHoldDays",
			mutate:  func(s *Settings) { s.AutoHoldDays = -1 },
			wantSub: "autoHoldDays",
		},
		{
			name: "custom status shadowing a built-in",
			mutate: func(s *Settings) {
				s.CustomStatuses = []Status{{ID: StatusReading, Label: "Shadow"}}
			},
			wantSub: "shadows",
		},
		{
			name: "duplicate custom status",
			mutate: func(s *Settings) {
				s.CustomStatuses = []Status{{ID: "shelf"}, {ID: "shelf"}}
			},
			wantSub: "duplicate",
		},
		{
			name: "bad custom status id",
			mutate: func(s *Settings) {
				s.CustomStatuses = []Status{{ID: "Not Valid!"}}
			},
			wantSub: "invalid custom status id",
		},
		{
			name: "statusConfig for unknown status",
			mutate: func(s *Settings) {
				s.StatusConfig = map[string]StatusStyle{"ghost": {Label: "Boo"}}
			},
			wantSub: "unknown status",
		},
		{
			name: "overlay auto-clear on unknown status",
			mutate: func(s *Settings) {
				s.RereadingOverlay.AutoClearOn = []string{"ghost"}
			},
			wantSub: "autoClearOn",
		},
		{
			name: "custom rule with unknown trigger",
			mutate: func(s *Settings) {
				s.Rules = []SavedRule{{ID: "bad-trigger", Trigger: "onSneeze", ToStatus: StatusDropped}}
			},
			wantSub: "unknown trigger",
		},
		{
			name: "custom rule with unknown target",
			mutate: func(s *Settings) {
				s.Rules = []SavedRule{{ID: "bad-target", Trigger: TriggerInactivity, ToStatus: "ghost"}}
			},
			wantSub: "not a known status",
		},
		{
			name: "custom rule with unknown from status",
			mutate: func(s *Settings) {
				s.Rules = []SavedRule{{
					ID: "bad-from", Trigger: TriggerInactivity,
					FromStatuses: []string{"ghost"}, ToStatus: StatusDropped,
				}}
			},
			wantSub: "fromStatuses",
		},
		{
			name: "duplicate rule id",
			mutate: func(s *Settings) {
				s.Rules = []SavedRule{
					{ID: RuleAutoHold},
					{ID: RuleAutoHold},
				}
			},
			wantSub: "duplicate",
		},
		{
			name: "min above max",
			mutate: func(s *Settings) {
				s.Rules = []SavedRule{{
					ID: RuleAutoHold,
					Conditions: &Conditions{
						ChaptersReadMin: floatPtr(10),
						ChaptersReadMax: floatPtr(5),
					},
				}}
			},
			wantSub: "chaptersReadMin",
		},
		{
			name: "broken expression",
			mutate: func(s *Settings) {
				s.Rules = []SavedRule{{
					ID: "bad-expr", Trigger: TriggerChapterRead,
					FromStatuses: []string{"*"}, ToStatus: StatusDropped,
					Expression: "Work.lastReadChapter >=",
				}}
			},
			wantSub: "invalid expression",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			settings := DefaultSettings()
			tc.mutate(&settings)

			err := ValidateSettings(settings, ev)
			if err == nil {
				t.Fatal("ValidateSettings() should have failed")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestValidateSettingsBuiltInOverrideNeedsNoIdentity(t *testing.T) {
	settings := DefaultSettings()
	settings.Rules = []SavedRule{
		{ID: RuleAutoHold, Enabled: boolPtr(false)},
	}
	if err := ValidateSettings(settings, nil); err != nil {
		t.Errorf("override entry without trigger/target should validate: %v", err)
	}
}

func TestValidateSettingsCustomRuleAgainstCustomStatus(t *testing.T) {
	settings := DefaultSettings()
	settings.CustomStatuses = []Status{{ID: "waiting", Label: "Waiting"}}
	settings.Rules = []SavedRule{
		{
			ID:           "wait-for-batch",
			Trigger:      TriggerInactivity,
			FromStatuses: []string{StatusUpToDate},
			ToStatus:     "waiting",
			Conditions:   &Conditions{InactivityDays: 30},
		},
	}
	if err := ValidateSettings(settings, nil); err != nil {
		t.Errorf("custom rule targeting a custom status should validate: %v", err)
	}
}
