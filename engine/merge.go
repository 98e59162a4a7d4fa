package engine

import "sort"

// defaultAutoHoldDays is used when settings carry no usable threshold.
const defaultAutoHoldDays = 7

// MergeRules combines the built-in rule catalog with saved overrides and
// custom rules into the effective, priority-ordered rule list for one
// evaluation pass:
//
//  1. Start from a fresh built-in copy.
//  2. Patch the live autoHoldDays threshold into every inactivity built-in.
//  3. Apply saved overrides onto built-ins, whitelisted fields only.
//  4. Append saved entries with unknown ids as custom rules.
//  5. If the legacy autoHoldEnabled switch is off, force-disable inactivity
//     built-ins, overriding any saved enable.
//  6. Sort by priority descending; ties put built-ins before customs, then
//     order by id ascending.
//
// The input settings are never mutated.
func MergeRules(saved []SavedRule, settings Settings) []Rule {
	rules := BuiltInRules()

	days := settings.AutoHoldDays
	if days <= 0 {
		days = defaultAutoHoldDays
	}
	for i := range rules {
		if rules[i].Trigger == TriggerInactivity {
			rules[i].Conditions.InactivityDays = days
		}
	}

	byID := make(map[string]int, len(rules))
	for i, r := range rules {
		byID[r.ID] = i
	}

	for _, sv := range saved {
		if i, ok := byID[sv.ID]; ok {
			applyOverride(&rules[i], sv)
			continue
		}
		rules = append(rules, sv.materialize())
	}

	// The legacy on/off switch wins over any saved override, but only for
	// built-ins; custom inactivity rules are the user's own business.
	if !settings.AutoHoldEnabled {
		for i := range rules {
			if rules[i].BuiltIn && rules[i].Trigger == TriggerInactivity {
				rules[i].Enabled = false
			}
		}
	}

	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.BuiltIn != b.BuiltIn {
			return a.BuiltIn
		}
		return a.ID < b.ID
	})

	return rules
}

// EffectiveRules is MergeRules over the settings' own saved rule list.
func EffectiveRules(settings Settings) []Rule {
	return MergeRules(settings.Rules, settings)
}

// applyOverride copies the whitelisted override fields of a saved entry onto
// a built-in rule. Identity fields (trigger, status sets, target) and the
// builtIn marker are untouchable, and expressions never attach to
// built-ins.
func applyOverride(r *Rule, sv SavedRule) {
	if sv.Enabled != nil {
		r.Enabled = *sv.Enabled
	}
	if sv.Name != nil {
		r.Name = *sv.Name
	}
	if sv.Description != nil {
		r.Description = *sv.Description
	}
	if sv.Priority != nil {
		r.Priority = *sv.Priority
	}
	if sv.Conditions != nil {
		r.Conditions = *sv.Conditions
	}
}

// materialize turns a saved entry into a custom rule. Missing optional
// fields degrade permissively: enabled defaults to on, priority to
// DefaultPriority, conditions to "don't care".
func (sv SavedRule) materialize() Rule {
	r := Rule{
		ID:              sv.ID,
		BuiltIn:         false,
		Enabled:         true,
		Trigger:         sv.Trigger,
		FromStatuses:    append([]string(nil), sv.FromStatuses...),
		ExcludeStatuses: append([]string(nil), sv.ExcludeStatuses...),
		ToStatus:        sv.ToStatus,
		Priority:        DefaultPriority,
		Expression:      sv.Expression,
	}
	if sv.Enabled != nil {
		r.Enabled = *sv.Enabled
	}
	if sv.Name != nil {
		r.Name = *sv.Name
	}
	if sv.Description != nil {
		r.Description = *sv.Description
	}
	if sv.Priority != nil {
		r.Priority = *sv.Priority
	}
	if sv.Conditions != nil {
		r.Conditions = *sv.Conditions
	}
	return r
}
