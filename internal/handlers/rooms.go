package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/umar/horizon-chat/internal/auth"
)

func Me(w http.ResponseWriter, r *http.Request) {
	viewer, ok := auth.ViewerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}
	writeJSON(w, http.StatusOK, viewer)
}

func ListRooms(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"active_room": s.ActiveRoom(),
			"rooms":       s.Rooms(),
		})
	}
}

func ActivateRoom(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := mux.Vars(r)["id"]

		act, err := s.Activate(r.Context(), roomID)
		if err != nil {
			writeSessionError(w, err, "failed to activate room", "room_id", roomID)
			return
		}
		writeJSON(w, http.StatusOK, act)
	}
}

// ReloadRooms refetches the membership list after joins or leaves made
// outside this session.
func ReloadRooms(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.ReloadRooms(r.Context())
		if err != nil {
			writeSessionError(w, err, "failed to reload rooms")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"active_room": s.ActiveRoom(),
			"rooms":       list,
		})
	}
}
