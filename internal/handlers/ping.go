// internal/handlers/ping.go
package handlers

import "net/http"

// PingHandler is the liveness probe.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
