package handlers

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Health reports liveness and how long the process has been up. It never
// reads calculator state, which belongs to the interactive session.
func Health(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, r, http.StatusOK, healthResponse{
			Status:        "ok",
			UptimeSeconds: int64(time.Since(started).Seconds()),
		})
	}
}
