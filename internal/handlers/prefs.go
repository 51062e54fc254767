package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func GetDraft(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"room_id": s.ActiveRoom(),
			"text":    s.Draft(),
		})
	}
}

func PutDraft(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.UpdateDraft(req.Text); err != nil {
			writeSessionError(w, err, "failed to save draft")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetTheme(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		theme, err := s.Theme()
		if err != nil {
			slog.Error("failed to read theme", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"theme": theme})
	}
}

func PutTheme(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Theme string `json:"theme"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.SetTheme(req.Theme); err != nil {
			writeSessionError(w, err, "failed to save theme")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"theme": req.Theme})
	}
}
