package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"yatube/internal/app"
	"yatube/internal/auth"
	"yatube/internal/metrics"
	"yatube/internal/models"
	"yatube/internal/util"
)

// Store is everything the handlers read and write. *db.Store implements it.
type Store interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListGroupPosts(ctx context.Context, groupID int64) ([]models.Post, error)
	ListAuthorPosts(ctx context.Context, authorID int64) ([]models.Post, error)
	CountAuthorPosts(ctx context.Context, authorID int64) (int, error)
	GetPost(ctx context.Context, id int64) (models.Post, error)
	CreatePost(ctx context.Context, p *models.Post) error
	UpdatePost(ctx context.Context, p *models.Post) error

	GroupBySlug(ctx context.Context, slug string) (models.Group, error)
	GroupByID(ctx context.Context, id int64) (models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)

	UserByUsername(ctx context.Context, username string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)

	Ping(ctx context.Context) error
}

// Authenticator is implemented by *auth.Service.
type Authenticator interface {
	Register(ctx context.Context, reg auth.Registration) (int64, error)
	Login(ctx context.Context, username, password string, lifetime time.Duration) (string, int64, error)
	Logout(ctx context.Context, sid string) error
	UserFromSession(ctx context.Context, sid string) (int64, time.Time, error)
}

type Server struct {
	Store   Store
	Auth    Authenticator
	Cfg     app.Config
	Log     *zap.Logger
	Metrics *metrics.Collector
	Views   *util.Renderer
	Router  chi.Router
}

const (
	queryTimeout   = 3 * time.Second
	requestTimeout = 5 * time.Second
)

func NewServer(store Store, authn Authenticator, cfg app.Config, log *zap.Logger, m *metrics.Collector, views *util.Renderer) *Server {
	s := &Server{
		Store:   store,
		Auth:    authn,
		Cfg:     cfg,
		Log:     log,
		Metrics: m,
		Views:   views,
		Router:  chi.NewRouter(),
	}
	r := s.Router

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(AccessLog(log))
	r.Use(m.Middleware)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(s.withSession)
	r.Use(s.withCSRF)

	r.NotFound(s.notFound)
	r.Handle("/static/*", http.StripPrefix("/static/", util.Static()))
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", m.Handler())

	// posts
	r.Get("/", s.handleIndex)
	r.Get("/group/{slug}/", s.handleGroupPosts)
	r.Get("/profile/{username}/", s.handleProfile)
	r.Get("/posts/{id}/", s.handlePostDetail)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/create/", s.handlePostCreate)
		r.Post("/create/", s.handlePostCreate)
		r.Get("/posts/{id}/edit/", s.handlePostEdit)
		r.Post("/posts/{id}/edit/", s.handlePostEdit)
	})

	// auth
	r.Get("/auth/login/", s.handleLogin)
	r.Post("/auth/login/", s.handleLogin)
	r.Get("/auth/signup/", s.handleSignup)
	r.Post("/auth/signup/", s.handleSignup)
	r.Get("/auth/logout/", s.handleLogout)
	r.Post("/auth/logout/", s.handleLogout)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.Router.ServeHTTP(w, r) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		s.Log.Warn("health check failed", zap.Error(err))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
