package httpx

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"yatube/internal/auth"
)

const (
	CookieName = "session_id"
	LoginPath  = "/auth/login/"

	CSRFCookieName = "csrftoken"
	CSRFField      = "csrf_token"
	CSRFHeader     = "X-CSRF-Token"
)

type ctxKeyCSRF struct{}

func csrfTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(ctxKeyCSRF{}).(string)
	return token
}

// withSession resolves the session cookie and puts the user id in the
// request context. Invalid or expired sessions leave the request anonymous.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
			uid, exp, err := s.Auth.UserFromSession(r.Context(), c.Value)
			switch {
			case err != nil:
				s.Log.Debug("session rejected", zap.Error(err))
			case !exp.After(time.Now()):
				s.Log.Debug("session expired", zap.Int64("uid", uid))
			default:
				r = r.WithContext(auth.WithUserID(r.Context(), uid))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// withCSRF issues a per-browser token cookie and rejects unsafe requests
// that come from another origin or do not echo the token back in the
// csrf_token form field (or X-CSRF-Token header).
func (s *Server) withCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(CSRFCookieName); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			token = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     CSRFCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				Secure:   s.Cfg.Production(),
				SameSite: http.SameSiteLaxMode,
			})
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		default:
			if reason := csrfReject(r, token); reason != "" {
				s.Log.Warn("csrf check failed",
					zap.String("reason", reason),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF verification failed. Request aborted.", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyCSRF{}, token)))
	})
}

// csrfReject returns why r fails the check, or "" when it passes.
func csrfReject(r *http.Request, token string) string {
	if r.Header.Get("Sec-Fetch-Site") == "cross-site" {
		return "cross-site fetch"
	}
	if origin := r.Header.Get("Origin"); origin != "" {
		u, err := url.Parse(origin)
		if err != nil || u.Host != r.Host {
			return "origin mismatch"
		}
	}
	sent := r.PostFormValue(CSRFField)
	if sent == "" {
		sent = r.Header.Get(CSRFHeader)
	}
	if sent == "" {
		return "token missing"
	}
	if subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
		return "token mismatch"
	}
	return ""
}

// requireAuth sends anonymous visitors to the login page, remembering
// where they were going.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserIDFrom(r.Context()); !ok {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginURL builds /auth/login/?next=<path>, leaving slashes readable.
func LoginURL(next string) string {
	return LoginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// safeNext only allows local absolute paths as a post-login target.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// AccessLog logs METHOD PATH -> STATUS with duration and request id.
func AccessLog(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
