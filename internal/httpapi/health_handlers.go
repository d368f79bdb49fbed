package httpapi

import "net/http"

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok": true,
	})
}
