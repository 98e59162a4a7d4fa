package engine

import "time"

// TriggerType identifies the event category a rule responds to.
type TriggerType string

const (
	TriggerChapterRead TriggerType = "chapterRead"
	TriggerInactivity  TriggerType = "inactivity"
)

// Built-in status ids, in fixed enumeration order.
const (
	StatusReading    = "reading"
	StatusUpToDate   = "up-to-date"
	StatusCompleted  = "completed"
	StatusOnHold     = "on-hold"
	StatusPlanToRead = "plan-to-read"
	StatusDropped    = "dropped"
	StatusRereading  = "re-reading"
)

// DefaultPriority is assigned to rules whose saved priority is missing.
const DefaultPriority = 10

// Status is one entry of the status catalog. Built-ins carry a fixed id and
// enumeration order; custom statuses are ordered by Order.
type Status struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	BuiltIn     bool   `json:"builtIn"`
	OverlayOnly bool   `json:"overlayOnly,omitempty"`
	Order       int    `json:"order"`
}

// StatusStyle is a per-status label/color override.
type StatusStyle struct {
	Label string `json:"label,omitempty"`
	Color string `json:"color,omitempty"`
}

// Conditions is the trigger-shaped condition block of a rule. A nil pointer
// means "don't check". Chapter counts are floats because partial chapters
// (e.g. 10.5) exist in the wild.
type Conditions struct {
	// chapterRead trigger
	RequireLatestChapter *bool `json:"requireLatestChapter,omitempty"`
	RequireStoryComplete *bool `json:"requireStoryComplete,omitempty"`

	// inactivity trigger
	InactivityDays  float64  `json:"inactivityDays,omitempty"`
	ChaptersReadMin *float64 `json:"chaptersReadMin,omitempty"`
	ChaptersReadMax *float64 `json:"chaptersReadMax,omitempty"`
}

// Rule is one effective transition rule. Built-in rules have fixed identity:
// their trigger, status sets and target can never be changed by
// configuration, only whether and how eagerly they fire.
type Rule struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description,omitempty"`
	BuiltIn         bool        `json:"builtIn"`
	Enabled         bool        `json:"enabled"`
	Trigger         TriggerType `json:"trigger"`
	FromStatuses    []string    `json:"fromStatuses"`
	ExcludeStatuses []string    `json:"excludeStatuses,omitempty"`
	ToStatus        string      `json:"toStatus"`
	Priority        int         `json:"priority"`
	Conditions      Conditions  `json:"conditions"`

	// Expression is an optional CEL condition over Work and Context facts.
	// Custom rules only; the merger never lets it onto a built-in.
	Expression string `json:"expression,omitempty"`
}

// SavedRule is a persisted rule entry. An entry whose ID matches a built-in
// rule acts as a patch: only the pointer fields below are applied, so a
// future built-in field cannot leak into user control. Any other entry is a
// fully custom rule and the remaining fields are used as-is.
type SavedRule struct {
	ID string `json:"id"`

	// Overridable on built-ins (nil = keep the built-in value).
	Enabled     *bool       `json:"enabled,omitempty"`
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Priority    *int        `json:"priority,omitempty"`
	Conditions  *Conditions `json:"conditions,omitempty"`

	// Custom-rule identity; ignored when ID is a built-in id.
	Trigger         TriggerType `json:"trigger,omitempty"`
	FromStatuses    []string    `json:"fromStatuses,omitempty"`
	ExcludeStatuses []string    `json:"excludeStatuses,omitempty"`
	ToStatus        string      `json:"toStatus,omitempty"`
	Expression      string      `json:"expression,omitempty"`
}

// OverlayConfig controls the orthogonal re-reading flag.
type OverlayConfig struct {
	Enabled     bool     `json:"enabled"`
	Label       string   `json:"label,omitempty"`
	Color       string   `json:"color,omitempty"`
	AutoClearOn []string `json:"autoClearOn,omitempty"`
}

// Settings is the persisted settings aggregate consumed by the engine. The
// engine treats it as an immutable snapshot for one evaluation pass.
type Settings struct {
	AutoHoldDays     float64                `json:"autoHoldDays"`
	AutoHoldEnabled  bool                   `json:"autoHoldEnabled"`
	StatusConfig     map[string]StatusStyle `json:"statusConfig,omitempty"`
	CustomStatuses   []Status               `json:"customStatuses,omitempty"`
	Rules            []SavedRule            `json:"stateMachineRules,omitempty"`
	RereadingOverlay OverlayConfig          `json:"rereadingOverlay"`
}

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings() Settings {
	return Settings{
		AutoHoldDays:    7,
		AutoHoldEnabled: true,
		RereadingOverlay: OverlayConfig{
			Enabled:     true,
			Label:       "Re-reading",
			Color:       "#8e44ad",
			AutoClearOn: []string{StatusCompleted, StatusDropped},
		},
	}
}

// Work is the tracked-work subset the engine consumes. The engine never
// persists a Work; it proposes a status and leaves mutation to the caller,
// except for the overlay flag clear in ApplyRereadingAutoClear.
type Work struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ReadingStatus   string    `json:"readingStatus"`
	Rereading       bool      `json:"rereading"`
	LastReadChapter float64   `json:"lastReadChapter"`
	CurrentChapter  float64   `json:"currentChapter"`
	LastAccessedAt  time.Time `json:"lastAccessedAt,omitzero"`
	LastUpdatedAt   time.Time `json:"lastUpdatedAt,omitzero"`
	AddedAt         time.Time `json:"addedAt,omitzero"`

	// Version backs the persistence layer's optimistic read-modify-write
	// discipline; the engine itself never reads it.
	Version int64 `json:"version"`
}

// ChapterReadContext is the caller-supplied event context for a chapter-read
// event. The engine does not fetch or infer these; the metadata layer
// computes them against known totals.
type ChapterReadContext struct {
	IsLatestChapter bool `json:"isLatestChapter"`
	IsStoryComplete bool `json:"isStoryComplete"`
}

// Decision describes the winning rule of one evaluation pass. A nil
// *Decision means no transition.
type Decision struct {
	ToStatus string `json:"toStatus"`
	RuleID   string `json:"ruleId"`
	RuleName string `json:"ruleName"`
}
