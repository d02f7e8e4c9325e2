package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/pairplay/gameserver/logger"
	"github.com/pairplay/gameserver/services"
)

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warnf("Failed to encode response: %v", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Malformed request body"})
		return false
	}
	return true
}

// POST /auth/unlock {"password": "..."}
func (s *GameServer) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Message: "Method not allowed"})
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	role, err := s.authService.Unlock(req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, apiResponse{Success: false, Message: "Wrong password"})
		return
	}

	token, err := s.authService.Issue(role)
	if err != nil {
		logger.Log.Errorf("Failed to issue token: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
		return
	}

	http.SetCookie(w, s.authService.Cookie(token))
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: map[string]string{"role": role}})
}

// GET /auth/status
func (s *GameServer) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	role := s.authService.RoleFromRequest(r)
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Data:    map[string]any{"unlocked": role != "", "role": role},
	})
}

// POST /auth/logout
func (s *GameServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.authService.ClearCookie())
	writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

// POST /api/questions/ask {"text": "..."}
func (s *GameServer) handleAskQuestion(w http.ResponseWriter, r *http.Request, role string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Message: "Method not allowed"})
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	q, err := s.questions.Ask(r.Context(), role, req.Text)
	if errors.Is(err, services.ErrEmptyQuestion) {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Question text is required"})
		return
	}
	if err != nil {
		logger.Log.Errorf("Failed to save question: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: q})
}

// GET /api/questions/mine
func (s *GameServer) handleMyQuestions(w http.ResponseWriter, r *http.Request, role string) {
	questions, err := s.questions.Mine(r.Context(), role)
	if err != nil {
		logger.Log.Errorf("Failed to load questions: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: questions})
}

// GET /api/questions/theirs
func (s *GameServer) handleTheirQuestions(w http.ResponseWriter, r *http.Request, role string) {
	questions, err := s.questions.Theirs(r.Context(), role)
	if err != nil {
		logger.Log.Errorf("Failed to load questions: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: questions})
}

// POST /api/questions/answer {"id": 1, "answer": "..."}
func (s *GameServer) handleAnswerQuestion(w http.ResponseWriter, r *http.Request, role string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Message: "Method not allowed"})
		return
	}
	var req struct {
		ID     uint   `json:"id"`
		Answer string `json:"answer"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	err := s.questions.Answer(r.Context(), role, req.ID, req.Answer)
	switch {
	case errors.Is(err, services.ErrEmptyAnswer):
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Answer text is required"})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Message: "Question not found"})
	case err != nil:
		logger.Log.Errorf("Failed to answer question: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
	default:
		writeJSON(w, http.StatusOK, apiResponse{Success: true})
	}
}

// POST /api/moods/save {"mood": "...", "note": "..."}
func (s *GameServer) handleSaveMood(w http.ResponseWriter, r *http.Request, role string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Message: "Method not allowed"})
		return
	}
	var req struct {
		Mood string `json:"mood"`
		Note string `json:"note"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := s.moods.Save(r.Context(), role, req.Mood, req.Note)
	if errors.Is(err, services.ErrEmptyMood) {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Mood is required"})
		return
	}
	if err != nil {
		logger.Log.Errorf("Failed to save mood: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: m})
}

// GET /api/moods/today
func (s *GameServer) handleMoodToday(w http.ResponseWriter, r *http.Request, role string) {
	m, err := s.moods.Today(r.Context(), role)
	s.writeMood(w, m, err)
}

// GET /api/moods/partner-today
func (s *GameServer) handlePartnerMoodToday(w http.ResponseWriter, r *http.Request, role string) {
	m, err := s.moods.PartnerToday(r.Context(), role)
	s.writeMood(w, m, err)
}

func (s *GameServer) writeMood(w http.ResponseWriter, m any, err error) {
	if errors.Is(err, services.ErrNotFound) {
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: nil})
		return
	}
	if err != nil {
		logger.Log.Errorf("Failed to load mood: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: m})
}

// GET /api/moods/history?limit=30
func (s *GameServer) handleMoodHistory(w http.ResponseWriter, r *http.Request, role string) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	moods, err := s.moods.History(r.Context(), role, limit)
	if err != nil {
		logger.Log.Errorf("Failed to load mood history: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: moods})
}
