package engine

// ApplyRereadingAutoClear clears a work's re-reading flag when its status
// moves into one of the overlay's auto-clear targets. It reports whether
// the flag changed. This is the one place the engine mutates its input: the
// flag is an orthogonal overlay the caller persists alongside the status
// change.
func ApplyRereadingAutoClear(work *Work, newStatus string, cfg OverlayConfig) bool {
	if work == nil || !work.Rereading || !cfg.Enabled {
		return false
	}
	for _, id := range cfg.AutoClearOn {
		if id == newStatus {
			work.Rereading = false
			return true
		}
	}
	return false
}
