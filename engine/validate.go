package engine

import (
	"fmt"
	"regexp"
)

// Settings size limits. Persisted settings are hand-editable and synced, so
// the editing surface bounds them rather than trusting the payload.
const (
	maxCustomStatuses = 100
	maxSavedRules     = 200
	maxIdentifierLen  = 64
)

var validStatusID = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidateSettings checks a settings aggregate before it is persisted.
// This is the strict half of the error-handling split: the evaluator
// degrades permissively at run time, and this keeps obviously broken data
// from being saved in the first place. The evaluator is used to compile
// custom CEL expressions; pass nil to skip expression checks.
func ValidateSettings(settings Settings, ev *Evaluator) error {
	if settings.AutoHoldDays < 0 {
		return fmt.Errorf("autoHoldDays cannot be negative, got %v", settings.AutoHoldDays)
	}

	if len(settings.CustomStatuses) > maxCustomStatuses {
		return fmt.Errorf("%d custom statuses exceeds the maximum of %d", len(settings.CustomStatuses), maxCustomStatuses)
	}
	seen := make(map[string]bool)
	for _, s := range settings.CustomStatuses {
		if err := validateIdentifier(s.ID); err != nil {
			return fmt.Errorf("invalid custom status id %q: %w", s.ID, err)
		}
		if IsBuiltInStatus(s.ID) {
			return fmt.Errorf("custom status %q shadows a built-in status", s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate custom status id %q", s.ID)
		}
		seen[s.ID] = true
	}

	known := KnownStatusIDs(settings)
	for id := range settings.StatusConfig {
		if !known[id] {
			return fmt.Errorf("statusConfig references unknown status %q", id)
		}
	}
	for _, id := range settings.RereadingOverlay.AutoClearOn {
		if !known[id] {
			return fmt.Errorf("rereadingOverlay.autoClearOn references unknown status %q", id)
		}
	}

	if len(settings.Rules) > maxSavedRules {
		return fmt.Errorf("%d saved rules exceeds the maximum of %d", len(settings.Rules), maxSavedRules)
	}
	seenRules := make(map[string]bool)
	for _, sv := range settings.Rules {
		if seenRules[sv.ID] {
			return fmt.Errorf("duplicate saved rule id %q", sv.ID)
		}
		seenRules[sv.ID] = true
		if err := validateSavedRule(sv, known, ev); err != nil {
			return fmt.Errorf("saved rule %q: %w", sv.ID, err)
		}
	}

	return nil
}

// validateSavedRule checks one saved entry. Overrides of built-in rules
// only need sane override fields; custom rules must carry a full, coherent
// identity.
func validateSavedRule(sv SavedRule, knownStatuses map[string]bool, ev *Evaluator) error {
	if sv.ID == "" {
		return fmt.Errorf("rule id cannot be empty")
	}
	if sv.Conditions != nil {
		if err := validateConditions(*sv.Conditions); err != nil {
			return err
		}
	}
	if IsBuiltInRule(sv.ID) {
		return nil
	}

	if err := validateIdentifier(sv.ID); err != nil {
		return fmt.Errorf("invalid rule id: %w", err)
	}
	switch sv.Trigger {
	case TriggerChapterRead, TriggerInactivity:
	default:
		return fmt.Errorf("unknown trigger %q", sv.Trigger)
	}
	if sv.ToStatus == "" {
		return fmt.Errorf("toStatus is required")
	}
	if !knownStatuses[sv.ToStatus] {
		return fmt.Errorf("toStatus %q is not a known status", sv.ToStatus)
	}
	for _, from := range sv.FromStatuses {
		if from != "*" && !knownStatuses[from] {
			return fmt.Errorf("fromStatuses references unknown status %q", from)
		}
	}
	for _, ex := range sv.ExcludeStatuses {
		if !knownStatuses[ex] {
			return fmt.Errorf("excludeStatuses references unknown status %q", ex)
		}
	}
	if sv.Expression != "" && ev != nil {
		if err := ev.CheckExpression(sv.Expression); err != nil {
			return fmt.Errorf("invalid expression: %w", err)
		}
	}
	return nil
}

func validateConditions(c Conditions) error {
	if c.InactivityDays < 0 {
		return fmt.Errorf("inactivityDays cannot be negative")
	}
	if c.ChaptersReadMin != nil && *c.ChaptersReadMin < 0 {
		return fmt.Errorf("chaptersReadMin cannot be negative")
	}
	if c.ChaptersReadMin != nil && c.ChaptersReadMax != nil && *c.ChaptersReadMin > *c.ChaptersReadMax {
		return fmt.Errorf("chaptersReadMin %v exceeds chaptersReadMax %v", *c.ChaptersReadMin, *c.ChaptersReadMax)
	}
	return nil
}

func validateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(id) > maxIdentifierLen {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(id), maxIdentifierLen)
	}
	if !validStatusID.MatchString(id) {
		return fmt.Errorf("must match pattern ^[a-z][a-z0-9-]*$")
	}
	return nil
}
