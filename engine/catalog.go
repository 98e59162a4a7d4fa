package engine

// Built-in rule ids. These identities are fixed: the rules are never
// deleted, and configuration can only touch the whitelisted override
// fields.
const (
	RuleCompleteFinishedStory = "complete-finished-story"
	RuleCatchUpOngoingStory   = "catch-up-ongoing-story"
	RuleFallBehind            = "fall-behind"
	RuleAutoHold              = "auto-hold"
	RuleAutoPlanToRead        = "auto-plan-to-read"
)

// BuiltInRules returns a fresh copy of the built-in rule definitions on
// every call, so no caller can alias another's slice. The two inactivity
// rules carry a placeholder InactivityDays of 0; MergeRules patches the
// live autoHoldDays value in.
func BuiltInRules() []Rule {
	return []Rule{
		{
			ID:              RuleCompleteFinishedStory,
			Name:            "Complete finished stories",
			Description:     "Reading the latest chapter of a finished story marks the work completed.",
			BuiltIn:         true,
			Enabled:         true,
			Trigger:         TriggerChapterRead,
			FromStatuses:    []string{"*"},
			ExcludeStatuses: []string{StatusCompleted, StatusDropped},
			ToStatus:        StatusCompleted,
			Priority:        100,
			Conditions: Conditions{
				RequireLatestChapter: boolPtr(true),
				RequireStoryComplete: boolPtr(true),
			},
		},
		{
			ID:              RuleCatchUpOngoingStory,
			Name:            "Catch up on ongoing stories",
			Description:     "Reaching the latest chapter of an ongoing story marks the work up to date.",
			BuiltIn:         true,
			Enabled:         true,
			Trigger:         TriggerChapterRead,
			FromStatuses:    []string{"*"},
			ExcludeStatuses: []string{StatusUpToDate, StatusCompleted, StatusDropped},
			ToStatus:        StatusUpToDate,
			Priority:        90,
			Conditions: Conditions{
				RequireLatestChapter: boolPtr(true),
				RequireStoryComplete: boolPtr(false),
			},
		},
		{
			ID:           RuleFallBehind,
			Name:         "Fall behind new chapters",
			Description:  "Reading a non-latest chapter while up to date moves the work back to reading.",
			BuiltIn:      true,
			Enabled:      true,
			Trigger:      TriggerChapterRead,
			FromStatuses: []string{StatusUpToDate},
			ToStatus:     StatusReading,
			Priority:     80,
			Conditions: Conditions{
				RequireLatestChapter: boolPtr(false),
			},
		},
		{
			ID:           RuleAutoHold,
			Name:         "Hold inactive reads",
			Description:  "A read with progress that sits untouched past the inactivity threshold goes on hold.",
			BuiltIn:      true,
			Enabled:      true,
			Trigger:      TriggerInactivity,
			FromStatuses: []string{StatusReading},
			ToStatus:     StatusOnHold,
			Priority:     60,
			Conditions: Conditions{
				InactivityDays:  0, // patched from settings by MergeRules
				ChaptersReadMin: floatPtr(1),
			},
		},
		{
			ID:           RuleAutoPlanToRead,
			Name:         "Shelve untouched reads",
			Description:  "A read with no progress past the inactivity threshold returns to plan to read.",
			BuiltIn:      true,
			Enabled:      true,
			Trigger:      TriggerInactivity,
			FromStatuses: []string{StatusReading},
			ToStatus:     StatusPlanToRead,
			Priority:     50,
			Conditions: Conditions{
				InactivityDays:  0, // patched from settings by MergeRules
				ChaptersReadMax: floatPtr(0),
			},
		},
	}
}

// IsBuiltInRule reports whether id names a built-in rule.
func IsBuiltInRule(id string) bool {
	switch id {
	case RuleCompleteFinishedStory, RuleCatchUpOngoingStory, RuleFallBehind,
		RuleAutoHold, RuleAutoPlanToRead:
		return true
	}
	return false
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func strPtr(s string) *string     { return &s }
