package api

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeText sends a plain-text body. Push senders only look at the status
// code, so errors on the push path stay plain text.
func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(message))
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeText(w, http.StatusBadRequest, "Bad Request: "+err.Error())
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeText(w, http.StatusInternalServerError, "Internal Server Error: "+err.Error())
}
