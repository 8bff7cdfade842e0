package utils

import (
	"encoding/json"
	"net/http"
)

// JSONResponse sends a JSON response with the given status and payload.
func JSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// JSONError sends the generic {"error": ...} failure body. Messages stay
// generic; internal detail never reaches the client.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSONResponse(w, status, map[string]string{"error": message})
}

// JSONMessage sends a {"message": ...} body.
func JSONMessage(w http.ResponseWriter, status int, message string) {
	JSONResponse(w, status, map[string]string{"message": message})
}
