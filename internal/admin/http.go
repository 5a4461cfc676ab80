package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"SpiceKart/pkg/kit"
)

type Server struct {
	Log      *zap.Logger
	Password *Password
	Tokens   *TokenMaker
	Sessions SessionStore
	Uploads  *Uploader

	CookieName string
	Secure     bool
	TTL        time.Duration
}

// Routes mounts under /admin. loginLimit guards POST /login.
func (s *Server) Routes(loginLimit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.With(loginLimit).Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/session", s.handleSession)

	if s.Uploads != nil {
		r.With(s.RequireAdmin).Post("/upload", s.Uploads.ServeHTTP)
	}

	return r
}

type loginReq struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "Password required", nil)
		return
	}

	switch err := s.Password.Verify(req.Password); {
	case errors.Is(err, ErrNotConfigured):
		s.Log.Error("admin login attempted but no admin password is configured")
		kit.WriteError(w, r, http.StatusInternalServerError, "Admin password is not configured", nil)
		return
	case err != nil:
		s.Log.Warn("admin login rejected", zap.String("remote", kit.ClientIP(r)))
		kit.WriteError(w, r, http.StatusForbidden, "Invalid password", nil)
		return
	}

	tok, claims, err := s.Tokens.New(s.TTL)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "Login error", nil)
		return
	}
	if err := s.Sessions.Register(r.Context(), claims.ID, s.TTL); err != nil {
		s.Log.Error("session register", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "Login error", nil)
		return
	}

	http.SetCookie(w, s.cookie(tok, int(s.TTL.Seconds())))
	s.Log.Info("admin logged in", zap.String("session", claims.ID), zap.String("remote", kit.ClientIP(r)))
	kit.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := s.claims(r); ok {
		if err := s.Sessions.Revoke(r.Context(), claims.ID); err != nil {
			s.Log.Warn("session revoke", zap.Error(err), zap.String("session", claims.ID))
		}
	}
	http.SetCookie(w, s.cookie("", -1))
	kit.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, map[string]any{"admin": s.isAdmin(r.Context(), r)})
}

// RequireAdmin rejects requests without a live admin session.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.isAdmin(r.Context(), r) {
			kit.WriteError(w, r, http.StatusForbidden, "Unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) isAdmin(ctx context.Context, r *http.Request) bool {
	claims, ok := s.claims(r)
	if !ok {
		return false
	}
	active, err := s.Sessions.Active(ctx, claims.ID)
	if err != nil {
		s.Log.Warn("session lookup", zap.Error(err))
		return false
	}
	return active
}

func (s *Server) claims(r *http.Request) (Claims, bool) {
	c, err := r.Cookie(s.CookieName)
	if err != nil || c.Value == "" {
		return Claims{}, false
	}
	claims, err := s.Tokens.Parse(c.Value)
	if err != nil {
		return Claims{}, false
	}
	return claims, true
}

func (s *Server) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
