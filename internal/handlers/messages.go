package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

func GetMessages(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"room_id":  s.ActiveRoom(),
			"messages": s.Messages(),
		})
	}
}

func SendMessage(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Body         string `json:"body"`
			AttachmentID string `json:"attachment_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		msg, err := s.Send(r.Context(), req.Body, req.AttachmentID)
		if err != nil {
			writeSessionError(w, err, "failed to send message")
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

func DeleteMessage(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := s.Delete(r.Context(), id); err != nil {
			writeSessionError(w, err, "failed to delete message", "message_id", id)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
