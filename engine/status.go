package engine

import "sort"

// customOrderBase is where custom statuses sort by default, after every
// built-in slot.
const customOrderBase = 100

var builtInStatuses = []Status{
	{ID: StatusReading, Label: "Reading", Color: "#3498db", BuiltIn: true, Order: 0},
	{ID: StatusUpToDate, Label: "Up to date", Color: "#2ecc71", BuiltIn: true, Order: 1},
	{ID: StatusCompleted, Label: "Completed", Color: "#27ae60", BuiltIn: true, Order: 2},
	{ID: StatusOnHold, Label: "On hold", Color: "#f39c12", BuiltIn: true, Order: 3},
	{ID: StatusPlanToRead, Label: "Plan to read", Color: "#95a5a6", BuiltIn: true, Order: 4},
	{ID: StatusDropped, Label: "Dropped", Color: "#e74c3c", BuiltIn: true, Order: 5},
	{ID: StatusRereading, Label: "Re-reading", Color: "#8e44ad", BuiltIn: true, OverlayOnly: true, Order: 6},
}

// BuiltInStatuses returns a fresh copy of the built-in status catalog in
// enumeration order.
func BuiltInStatuses() []Status {
	out := make([]Status, len(builtInStatuses))
	copy(out, builtInStatuses)
	return out
}

// IsBuiltInStatus reports whether id names a built-in status.
func IsBuiltInStatus(id string) bool {
	for _, s := range builtInStatuses {
		if s.ID == id {
			return true
		}
	}
	return false
}

// AllStatuses merges the built-in catalog with the settings' label/color
// overrides and custom statuses into one ordered snapshot. The result is a
// fresh slice on every call; nothing in the registry is shared mutable
// state. Missing overrides fall back to the built-in defaults.
func AllStatuses(settings Settings) []Status {
	out := BuiltInStatuses()
	for i := range out {
		style, ok := settings.StatusConfig[out[i].ID]
		if !ok {
			continue
		}
		if style.Label != "" {
			out[i].Label = style.Label
		}
		if style.Color != "" {
			out[i].Color = style.Color
		}
	}

	customs := make([]Status, 0, len(settings.CustomStatuses))
	for i, s := range settings.CustomStatuses {
		s.BuiltIn = false
		s.OverlayOnly = false
		if s.Order <= 0 {
			s.Order = customOrderBase + i
		}
		customs = append(customs, s)
	}
	sort.SliceStable(customs, func(i, j int) bool {
		return customs[i].Order < customs[j].Order
	})

	return append(out, customs...)
}

// PrimaryStatuses is AllStatuses without overlay-only entries. This is what
// a status picker should offer as a work's primary reading status.
func PrimaryStatuses(settings Settings) []Status {
	all := AllStatuses(settings)
	out := make([]Status, 0, len(all))
	for _, s := range all {
		if s.OverlayOnly {
			continue
		}
		out = append(out, s)
	}
	return out
}

// KnownStatusIDs returns the set of every status id in the registry,
// built-in and custom.
func KnownStatusIDs(settings Settings) map[string]bool {
	ids := make(map[string]bool)
	for _, s := range AllStatuses(settings) {
		ids[s.ID] = true
	}
	return ids
}
