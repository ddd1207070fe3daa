package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func jsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func jsonError(w http.ResponseWriter, code int, message string) {
	jsonResponse(w, code, map[string]string{"error": message})
}

// sessionID reads the caller's cart session from the X-Session-ID
// header. Carts are keyed by this opaque value; the client mints it.
func sessionID(r *http.Request) string {
	return r.Header.Get("X-Session-ID")
}

// pathID parses a numeric path variable, answering 400 itself when the
// value is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid := sessionID(r)
	if sid == "" {
		jsonError(w, http.StatusBadRequest, "missing X-Session-ID header")
		return "", false
	}
	return sid, true
}
