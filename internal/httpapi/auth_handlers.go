package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"jobportal-engine/internal/auth"
	"jobportal-engine/internal/logger"
)

const oauthStateCookie = "oauth_state"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func bearer(tok string) tokenResponse {
	return tokenResponse{AccessToken: tok, TokenType: "bearer"}
}

func (s *server) signup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tok, err := s.auth.Signup(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Signup successful",
		"token":   tok,
	})
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	tok, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, bearer(tok))
}

func (s *server) googleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"id_token"`
		Course  string `json:"course"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	tok, err := s.auth.GoogleSignIn(r.Context(), req.IDToken, req.Course)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, bearer(tok))
}

func (s *server) googleLogin(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		s.writeServiceError(w, r, auth.ErrGoogleDisabled)
		return
	}
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	state := hex.EncodeToString(b[:])
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.google.AuthCodeURL(state), http.StatusFound)
}

func (s *server) googleCallback(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		s.writeServiceError(w, r, auth.ErrGoogleDisabled)
		return
	}
	q := r.URL.Query()
	c, err := r.Cookie(oauthStateCookie)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		WriteError(w, r, http.StatusBadRequest, "bad_state", "OAuth state mismatch")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/auth/google", MaxAge: -1})

	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "missing code")
		return
	}
	id, err := s.google.Exchange(r.Context(), code)
	if err != nil {
		s.log.Warn("google callback failed", logger.Error(err))
		WriteError(w, r, http.StatusUnauthorized, "invalid_token", "Google sign-in failed")
		return
	}
	tok, err := s.auth.SignInIdentity(r.Context(), id, "")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, bearer(tok))
}

func (s *server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "email is required")
		return
	}
	if err := s.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If the email is registered, a temporary password has been sent.",
	})
}
