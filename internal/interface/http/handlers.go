package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/studyflow/studyflow/internal/application/command"
	"github.com/studyflow/studyflow/internal/application/query"
	"github.com/studyflow/studyflow/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns basic service information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "studyflow-api",
		"version": "v1",
		"uptime":  s.Uptime().String(),
	})
}

// handleLive is the liveness probe. The process is up; nothing else is claimed.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleHealth reports per-component health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	components := s.deps.Health.Check(r.Context())
	healthy := true
	for _, c := range components {
		if !c.Healthy {
			healthy = false
			break
		}
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	writeJSON(w, status, map[string]interface{}{
		"status":     overall,
		"components": components,
	})
}

// handleReady is the readiness probe: ready only when every component is.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		for _, c := range s.deps.Health.Check(r.Context()) {
			if !c.Healthy {
				writeJSONError(w, http.StatusServiceUnavailable, "not_ready", "Service dependencies unavailable")
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PLANNING ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

// generateScheduleRequest is the optional body for plan generation.
type generateScheduleRequest struct {
	// Date is the target calendar date, "YYYY-MM-DD". Empty means today.
	Date string `json:"date,omitempty"`
}

// handleGenerateSchedule runs the plan path for the authenticated user.
func (s *Server) handleGenerateSchedule(w http.ResponseWriter, r *http.Request) {
	s.generateSchedule(w, r, false)
}

// handleReplanSchedule regenerates today's plan. Completed blocks survive.
func (s *Server) handleReplanSchedule(w http.ResponseWriter, r *http.Request) {
	s.generateSchedule(w, r, true)
}

func (s *Server) generateSchedule(w http.ResponseWriter, r *http.Request, replan bool) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req generateScheduleRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	cmd := command.GenerateScheduleCommand{UserID: userID, Replan: replan}
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_date", "Date must be YYYY-MM-DD")
			return
		}
		// Noon UTC falls on the requested calendar date in every inhabited
		// zone, so the planner's user-zone anchoring cannot shift the day.
		cmd.Date = parsed.Add(12 * time.Hour)
	}

	result, err := s.deps.GenerateSchedule.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetSchedule returns the blocks for one date (default today, UTC).
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	dateKey := r.URL.Query().Get("date")
	if dateKey == "" {
		dateKey = time.Now().UTC().Format("2006-01-02")
	}

	view, err := s.deps.GetDailySchedule.Handle(r.Context(), query.GetDailyScheduleQuery{
		UserID:  userID,
		DateKey: shared.DateKey(dateKey),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

// handleCompleteTask marks a task complete and grants XP.
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	result, err := s.deps.CompleteTask.Handle(r.Context(), command.CompleteTaskCommand{
		UserID: userID,
		TaskID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCompleteHabit records a habit completion for today.
func (s *Server) handleCompleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	result, err := s.deps.CompleteHabit.Handle(r.Context(), command.CompleteHabitCommand{
		UserID:  userID,
		HabitID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCompleteBlock completes a schedule block and cascades to its target.
func (s *Server) handleCompleteBlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	result, err := s.deps.CompleteBlock.Handle(r.Context(), command.CompleteBlockCommand{
		UserID:  userID,
		BlockID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProgress returns XP, badges, and habit streaks.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	view, err := s.deps.GetProgress.Handle(r.Context(), query.GetProgressQuery{UserID: userID})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// updatePreferencesRequest carries the preference fields to change. Omitted
// fields keep their current values.
type updatePreferencesRequest struct {
	WorkHours      string `json:"work_hours,omitempty"`
	EnergyPeak     string `json:"energy_peak,omitempty"`
	MaxTasksPerDay int    `json:"max_tasks_per_day,omitempty"`
	MaxWorkMinutes int    `json:"max_work_minutes,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
}

// handleUpdatePreferences merges submitted preference fields into the profile.
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req updatePreferencesRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	prefs, err := s.deps.UpdatePreferences.Handle(r.Context(), command.UpdatePreferencesCommand{
		UserID:         userID,
		WorkHours:      req.WorkHours,
		EnergyPeak:     req.EnergyPeak,
		MaxTasksPerDay: req.MaxTasksPerDay,
		MaxWorkMinutes: req.MaxWorkMinutes,
		Timezone:       req.Timezone,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// userID extracts and validates the authenticated user. On failure it writes
// the error response and returns ok=false.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (shared.UserID, bool) {
	id, err := shared.NewUserID(r.Header.Get(headerUserID))
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "missing_user", "X-User-ID header is required")
		return "", false
	}
	return id, true
}

// decodeBody decodes an optional JSON body. An empty body is not an error.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeDomainError maps domain errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		writeJSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "transaction_conflict", "Concurrent update, retry the request")
	case errors.Is(err, shared.ErrAggregation):
		writeJSONError(w, http.StatusServiceUnavailable, "context_unavailable", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
