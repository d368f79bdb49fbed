package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"jobportal-engine/internal/auth"
	"jobportal-engine/internal/students"
)

const studentKey ctxKey = "student"

func StudentFrom(ctx context.Context) (students.Student, bool) {
	s, ok := ctx.Value(studentKey).(students.Student)
	return s, ok
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requireStudent rejects requests without a valid bearer token for an active
// student and stores the student in the request context.
func (s *server) requireStudent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Not authenticated")
			return
		}
		st, err := s.auth.Authenticate(r.Context(), tok)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			}
			s.writeServiceError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), studentKey, st)))
	}
}
