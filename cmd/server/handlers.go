package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/engine"
	"github.com/shelfmark/shelfmark/internal/logger"
	"github.com/shelfmark/shelfmark/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if pg, ok := s.store.(*store.PostgresStore); ok {
		if err := pg.DB().PingContext(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"effectiveRules": len(s.manager.EffectiveRules()),
	})
}

func (s *Server) handleListStatuses(w http.ResponseWriter, r *http.Request) {
	settings := s.manager.Settings()
	respondJSON(w, http.StatusOK, StatusesResponse{
		Statuses: engine.AllStatuses(settings),
		Primary:  engine.PrimaryStatuses(settings),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.manager.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	settings := engine.DefaultSettings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := engine.ValidateSettings(settings, s.manager.Evaluator()); err != nil {
		respondError(w, http.StatusBadRequest, "invalid settings", err)
		return
	}

	if err := s.store.SaveSettings(r.Context(), settings); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save settings", err)
		return
	}
	if err := s.manager.Reload(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to reload settings", err)
		return
	}

	respondJSON(w, http.StatusOK, s.manager.Settings())
}

func (s *Server) handleEffectiveRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, EffectiveRulesResponse{
		Rules: s.manager.EffectiveRules(),
	})
}

func (s *Server) handleListWorks(w http.ResponseWriter, r *http.Request) {
	works, err := s.store.ListWorks(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list works", err)
		return
	}
	respondJSON(w, http.StatusOK, WorksListResponse{Works: works})
}

func (s *Server) handleCreateWork(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	status := req.ReadingStatus
	if status == "" {
		status = engine.StatusPlanToRead
	}
	if !engine.KnownStatusIDs(s.manager.Settings())[status] {
		respondError(w, http.StatusBadRequest, "unknown reading status", nil)
		return
	}

	work := &engine.Work{
		ID:              uuid.NewString(),
		Title:           req.Title,
		ReadingStatus:   status,
		Rereading:       req.Rereading,
		LastReadChapter: req.LastReadChapter,
		CurrentChapter:  req.CurrentChapter,
		AddedAt:         time.Now().UTC(),
	}
	if err := s.store.AddWork(r.Context(), work); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create work", err)
		return
	}
	respondJSON(w, http.StatusCreated, work)
}

func (s *Server) handleGetWork(w http.ResponseWriter, r *http.Request) {
	work, err := s.store.GetWork(r.Context(), chi.URLParam(r, "workId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "work not found", err)
		return
	}
	respondJSON(w, http.StatusOK, work)
}

func (s *Server) handleUpdateWork(w http.ResponseWriter, r *http.Request) {
	work, err := s.store.GetWork(r.Context(), chi.URLParam(r, "workId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "work not found", err)
		return
	}

	var req UpdateWorkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Title != nil {
		work.Title = *req.Title
	}
	if req.ReadingStatus != nil {
		if !engine.KnownStatusIDs(s.manager.Settings())[*req.ReadingStatus] {
			respondError(w, http.StatusBadRequest, "unknown reading status", nil)
			return
		}
		work.ReadingStatus = *req.ReadingStatus
	}
	if req.Rereading != nil {
		work.Rereading = *req.Rereading
	}
	if req.LastReadChapter != nil {
		work.LastReadChapter = *req.LastReadChapter
	}
	if req.CurrentChapter != nil {
		work.CurrentChapter = *req.CurrentChapter
	}
	work.LastUpdatedAt = time.Now().UTC()

	if err := s.store.UpdateWork(r.Context(), work); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			respondError(w, http.StatusConflict, "work was modified concurrently", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update work", err)
		return
	}
	respondJSON(w, http.StatusOK, work)
}

func (s *Server) handleDeleteWork(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteWork(r.Context(), chi.URLParam(r, "workId")); err != nil {
		respondError(w, http.StatusNotFound, "work not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChapterRead records a chapter-read event: progress and access
// timestamps move first, then the rule engine proposes a transition for the
// pre-event status, then the overlay auto-clear runs against the new
// status. Everything is persisted in one optimistic write.
func (s *Server) handleChapterRead(w http.ResponseWriter, r *http.Request) {
	work, err := s.store.GetWork(r.Context(), chi.URLParam(r, "workId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "work not found", err)
		return
	}

	var req ChapterReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Chapter < 0 {
		respondError(w, http.StatusBadRequest, "chapter cannot be negative", nil)
		return
	}

	now := time.Now().UTC()
	if req.Chapter > work.LastReadChapter {
		work.LastReadChapter = req.Chapter
	}
	work.CurrentChapter = req.Chapter
	work.LastAccessedAt = now

	decision := s.manager.ChapterRead(*work, engine.ChapterReadContext{
		IsLatestChapter: req.IsLatestChapter,
		IsStoryComplete: req.IsStoryComplete,
	})

	cleared := false
	if decision != nil {
		work.ReadingStatus = decision.ToStatus
		work.LastUpdatedAt = now
		cleared = engine.ApplyRereadingAutoClear(work, decision.ToStatus, s.manager.Overlay())
		logger.Info("chapter-read transition",
			"work", work.ID, "rule", decision.RuleID, "toStatus", decision.ToStatus)
	}

	if err := s.store.UpdateWork(r.Context(), work); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			respondError(w, http.StatusConflict, "work was modified concurrently", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to persist work", err)
		return
	}

	respondJSON(w, http.StatusOK, ChapterReadResponse{
		Work:             work,
		Decision:         decision,
		RereadingCleared: cleared,
	})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	result, err := s.sweeper.SweepOnce(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "sweep failed", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{"error": message}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
