package main

import "github.com/shelfmark/shelfmark/engine"

// API request and response models.

// CreateWorkRequest adds a work to the tracker.
type CreateWorkRequest struct {
	Title           string  `json:"title"`
	ReadingStatus   string  `json:"readingStatus,omitempty"`
	Rereading       bool    `json:"rereading,omitempty"`
	LastReadChapter float64 `json:"lastReadChapter,omitempty"`
	CurrentChapter  float64 `json:"currentChapter,omitempty"`
}

// UpdateWorkRequest patches a work; nil fields are left alone.
type UpdateWorkRequest struct {
	Title           *string  `json:"title,omitempty"`
	ReadingStatus   *string  `json:"readingStatus,omitempty"`
	Rereading       *bool    `json:"rereading,omitempty"`
	LastReadChapter *float64 `json:"lastReadChapter,omitempty"`
	CurrentChapter  *float64 `json:"currentChapter,omitempty"`
}

// ChapterReadRequest reports that a chapter was read. The latest/complete
// flags come from the caller's metadata layer; the engine never infers
// them.
type ChapterReadRequest struct {
	Chapter         float64 `json:"chapter"`
	IsLatestChapter bool    `json:"isLatestChapter"`
	IsStoryComplete bool    `json:"isStoryComplete"`
}

// ChapterReadResponse returns the persisted work plus the transition the
// engine chose, if any.
type ChapterReadResponse struct {
	Work             *engine.Work     `json:"work"`
	Decision         *engine.Decision `json:"decision,omitempty"`
	RereadingCleared bool             `json:"rereadingCleared"`
}

// WorksListResponse lists tracked works.
type WorksListResponse struct {
	Works []*engine.Work `json:"works"`
}

// StatusesResponse is the status registry snapshot: the full catalog and
// the primary subset without overlay-only entries.
type StatusesResponse struct {
	Statuses []engine.Status `json:"statuses"`
	Primary  []engine.Status `json:"primary"`
}

// EffectiveRulesResponse is the merged, priority-ordered rule list preview.
type EffectiveRulesResponse struct {
	Rules []engine.Rule `json:"rules"`
}
