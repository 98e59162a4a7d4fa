package engine

import (
	"context"
	"fmt"
	"sync"
)

// SettingsSource loads the persisted settings aggregate. The store package
// satisfies it; tests use a stub.
type SettingsSource interface {
	LoadSettings(ctx context.Context) (Settings, error)
}

// snapshot is one immutable view of the merged configuration. Readers get
// whole snapshots, never halves of two.
type snapshot struct {
	settings Settings
	rules    []Rule
	statuses []Status
}

// Manager owns the current effective configuration: the settings snapshot,
// the merged rule list and the status registry. Reload rebuilds everything
// from the source and swaps the snapshot atomically, so an evaluation
// running through an old snapshot keeps a consistent view.
type Manager struct {
	source    SettingsSource
	evaluator *Evaluator

	mu   sync.RWMutex
	snap snapshot
}

// NewManager builds a Manager and performs the initial load.
func NewManager(ctx context.Context, source SettingsSource, evaluator *Evaluator) (*Manager, error) {
	m := &Manager{
		source:    source,
		evaluator: evaluator,
	}
	if err := m.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return m, nil
}

// Reload fetches settings from the source, merges the effective rule list
// and swaps the snapshot. On error the previous snapshot stays active.
func (m *Manager) Reload(ctx context.Context) error {
	settings, err := m.source.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	next := snapshot{
		settings: settings,
		rules:    EffectiveRules(settings),
		statuses: AllStatuses(settings),
	}

	m.mu.Lock()
	m.snap = next
	m.mu.Unlock()
	return nil
}

// Settings returns the current settings snapshot.
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.settings
}

// EffectiveRules returns a copy of the current merged rule list.
func (m *Manager) EffectiveRules() []Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Rule, len(m.snap.rules))
	copy(out, m.snap.rules)
	return out
}

// Statuses returns a copy of the current status registry.
func (m *Manager) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Status, len(m.snap.statuses))
	copy(out, m.snap.statuses)
	return out
}

// Overlay returns the current re-reading overlay configuration.
func (m *Manager) Overlay() OverlayConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.settings.RereadingOverlay
}

// Evaluator exposes the shared evaluator, e.g. for expression validation.
func (m *Manager) Evaluator() *Evaluator {
	return m.evaluator
}

// ChapterRead evaluates a chapter-read event against the current snapshot.
func (m *Manager) ChapterRead(work Work, ctx ChapterReadContext) *Decision {
	m.mu.RLock()
	rules := m.snap.rules
	m.mu.RUnlock()
	return m.evaluator.EvaluateChapterRead(work, ctx, rules)
}

// Inactivity evaluates the inactivity trigger against the current snapshot.
func (m *Manager) Inactivity(work Work) *Decision {
	m.mu.RLock()
	rules := m.snap.rules
	m.mu.RUnlock()
	return m.evaluator.EvaluateInactivity(work, rules)
}
