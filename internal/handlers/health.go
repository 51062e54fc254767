package handlers

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Health reports the session's moving parts. The service counts as
// healthy while it is serving; a stalled receipt queue only shows up
// as a growing pending count.
func Health(s Session, bus string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":           "healthy",
			"service":          "horizon",
			"bus":              bus,
			"active_room":      s.ActiveRoom(),
			"pending_receipts": s.PendingReceipts(),
		})
	}
}
