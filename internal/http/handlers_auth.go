package httpx

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"yatube/internal/auth"
)

const msgInvalidLogin = "Please enter a correct username and password."

func (s *Server) setSessionCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Cfg.Production(),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(s.Cfg.SessionLifetime),
	})
}

// ---------------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------------

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r.Context(), "Log in")

	if r.Method != http.MethodPost {
		data.Next = r.URL.Query().Get("next")
		s.render(w, r, http.StatusOK, "auth_login.html", data)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	next := r.PostFormValue("next")

	sid, uid, err := s.Auth.Login(r.Context(), username, password, s.Cfg.SessionLifetime)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidLogin) {
			s.serverError(w, r, err)
			return
		}
		data.Error = msgInvalidLogin
		data.Username = username
		data.Next = next
		s.render(w, r, http.StatusOK, "auth_login.html", data)
		return
	}

	s.Log.Info("login", zap.String("username", username), zap.Int64("uid", uid))
	s.setSessionCookie(w, sid)
	http.Redirect(w, r, safeNext(next), http.StatusFound)
}

// ---------------------------------------------------------------------------------
// Signup
// ---------------------------------------------------------------------------------

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r.Context(), "Sign up")

	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, "auth_signup.html", data)
		return
	}

	reg := auth.Registration{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Password:  r.PostFormValue("password"),
	}

	if _, err := s.Auth.Register(r.Context(), reg); err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken),
			errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, auth.ErrMissingFields),
			errors.Is(err, auth.ErrNameTooLong):
			data.Error = err.Error()
		default:
			s.serverError(w, r, err)
			return
		}
		data.Username, data.FirstName, data.LastName = reg.Username, reg.FirstName, reg.LastName
		s.render(w, r, http.StatusOK, "auth_signup.html", data)
		return
	}

	sid, _, err := s.Auth.Login(r.Context(), reg.Username, reg.Password, s.Cfg.SessionLifetime)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.setSessionCookie(w, sid)
	http.Redirect(w, r, "/", http.StatusFound)
}

// ---------------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------------

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		if err := s.Auth.Logout(r.Context(), c.Value); err != nil {
			s.Log.Warn("logout", zap.Error(err))
		}
		http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
	data := pageData{Title: "Logged out", CSRFToken: csrfTokenFrom(r.Context())}
	s.render(w, r, http.StatusOK, "auth_logged_out.html", data)
}
