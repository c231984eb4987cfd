package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vraj-maheshwari/pollapp/internal/websocket"
)

// Notifier is the real-time transport handlers fire vote events into.
// Delivery is fire-and-forget; tests substitute a recorder.
type Notifier interface {
	Broadcast(websocket.VoteEvent)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
