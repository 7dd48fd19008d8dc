package handlers

import "net/http"

// HandleHealth reports that the process is serving. It does not probe the activities API.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
