package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"ai-workout-coach/internal/engine"
	"ai-workout-coach/internal/export"
	"ai-workout-coach/internal/shared"
	"ai-workout-coach/internal/workout"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type loginRequest struct {
	UserID string `json:"user_id"`
	APIKey string `json:"api_key"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id required"})
		return
	}
	if req.APIKey != s.jwtSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := IssueToken(s.jwtSecret, req.UserID, time.Now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_in": int(tokenTTL.Seconds()),
	})
}

// validateProfile enforces the schedule and experience ranges at the API
// boundary so out-of-range values never reach the repository or the engine.
func validateProfile(p *workout.UserProfile) error {
	if p.Schedule.DaysPerWeek < 1 || p.Schedule.DaysPerWeek > 7 {
		return fmt.Errorf("days_per_week must be between 1 and 7, got %d", p.Schedule.DaysPerWeek)
	}
	if p.Schedule.SessionDuration < 15 || p.Schedule.SessionDuration > 120 {
		return fmt.Errorf("session_duration must be between 15 and 120 minutes, got %d", p.Schedule.SessionDuration)
	}
	switch p.ExperienceLevel {
	case workout.Beginner, workout.Intermediate, workout.Advanced:
		return nil
	default:
		return fmt.Errorf("experience_level must be beginner, intermediate or advanced, got %q", p.ExperienceLevel)
	}
}

func validateLog(l *workout.WorkoutLog) error {
	if l.SessionRPE < 1 || l.SessionRPE > 10 {
		return fmt.Errorf("session_rpe must be between 1 and 10, got %d", l.SessionRPE)
	}
	if l.DurationMinutes < 0 {
		return fmt.Errorf("duration_minutes must not be negative, got %d", l.DurationMinutes)
	}
	for _, ex := range l.Exercises {
		if ex.RPE < 1 || ex.RPE > 10 {
			return fmt.Errorf("rpe for %s must be between 1 and 10, got %d", ex.ExerciseID, ex.RPE)
		}
	}
	return nil
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var profile workout.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	profile.UserID = userIDFromContext(r.Context())
	if err := validateProfile(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.repo.SaveProfile(r.Context(), &profile); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID != userIDFromContext(r.Context()) {
		writeNotFound(w)
		return
	}

	profile, err := s.repo.GetProfile(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if profile == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type generateRequest struct {
	WeekNumber int `json:"week_number"`
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	userID := userIDFromContext(r.Context())
	plan, metas, err := s.engine.GeneratePlan(r.Context(), userID, req.WeekNumber)
	s.recordMetas(metas)
	if err != nil {
		if errors.Is(err, engine.ErrProfileNotFound) {
			writeNotFound(w)
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.ownedPlan(w, r, chi.URLParam(r, "planID"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCurrentPlan(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID != userIDFromContext(r.Context()) {
		writeNotFound(w)
		return
	}

	plan, err := s.repo.GetCurrentPlan(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if plan == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleSaveLog(w http.ResponseWriter, r *http.Request) {
	var wlog workout.WorkoutLog
	if err := json.NewDecoder(r.Body).Decode(&wlog); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	wlog.UserID = userIDFromContext(r.Context())

	if _, ok := s.ownedPlan(w, r, wlog.PlanID); !ok {
		return
	}
	if _, err := workout.ParseWeekday(string(wlog.Day)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := validateLog(&wlog); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if wlog.LogID == "" {
		wlog.LogID = uuid.NewString()
	}
	if wlog.CompletedAt.IsZero() {
		wlog.CompletedAt = time.Now().UTC()
	}

	if err := s.repo.SaveLog(r.Context(), &wlog); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, wlog)
}

func (s *Server) handleWeekLogs(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID != userIDFromContext(r.Context()) {
		writeNotFound(w)
		return
	}
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || week < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week number"})
		return
	}

	logs, err := s.repo.ListWeekLogs(r.Context(), userID, week)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []workout.WorkoutLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

type feedbackRequest struct {
	WeekNumber   int    `json:"week_number"`
	FeedbackText string `json:"feedback_text"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	userID := userIDFromContext(r.Context())
	fb, metas, err := s.engine.ProcessFeedback(r.Context(), userID, req.WeekNumber, req.FeedbackText)
	s.recordMetas(metas)
	if err != nil {
		if errors.Is(err, engine.ErrProfileNotFound) {
			writeNotFound(w)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

type adaptRequest struct {
	FeedbackText string `json:"feedback_text"`
}

func (s *Server) handleAdapt(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID != userIDFromContext(r.Context()) {
		writeNotFound(w)
		return
	}
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || week < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week number"})
		return
	}

	var req adaptRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}

	result, metas, err := s.engine.AdaptPlan(r.Context(), userID, week, req.FeedbackText)
	s.recordMetas(metas)
	if err != nil {
		if errors.Is(err, engine.ErrProfileNotFound) {
			writeNotFound(w)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExportCalendar(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.ownedPlan(w, r, chi.URLParam(r, "planID"))
	if !ok {
		return
	}

	start := export.NextMonday(time.Now())
	content := export.RenderICS(plan, start)
	if s.calendars != nil {
		if _, err := s.calendars.Save(plan, start); err != nil {
			log.Printf("Warning: failed to persist calendar export: %v", err)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("workout_week%d.ics", plan.WeekNumber)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

// ownedPlan loads a plan and enforces ownership. Foreign and missing plans
// both look like 404 so plan IDs cannot be probed.
func (s *Server) ownedPlan(w http.ResponseWriter, r *http.Request, planID string) (*workout.WorkoutPlan, bool) {
	plan, err := s.repo.GetPlan(r.Context(), planID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if plan == nil || plan.UserID != userIDFromContext(r.Context()) {
		writeNotFound(w)
		return nil, false
	}
	return plan, true
}

func (s *Server) recordMetas(metas []shared.AgentMeta) {
	if s.metrics == nil {
		return
	}
	// Recording is best-effort; a metrics failure never fails the request.
	if err := s.metrics.RecordAll(context.Background(), metas); err != nil {
		log.Printf("Warning: failed to record metrics: %v", err)
	}
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}
