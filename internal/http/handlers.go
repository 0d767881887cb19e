package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"yatube/internal/auth"
	"yatube/internal/db"
	"yatube/internal/forms"
	"yatube/internal/models"
	"yatube/internal/paginate"
)

type pageData struct {
	Title     string
	Path      string
	User      *models.User
	CSRFToken string

	// listings
	Page      paginate.Page[models.Post]
	Group     *models.Group
	Author    *models.User
	PostCount int

	// detail and form
	Post   *models.Post
	Form   forms.PostForm
	Errors forms.FieldErrors
	Groups []models.Group
	IsEdit bool

	// auth pages
	Next      string
	Error     string
	Username  string
	FirstName string
	LastName  string
}

// newPage fills the fields every page needs: title, the logged in user
// and the form token.
func (s *Server) newPage(ctx context.Context, title string) pageData {
	return pageData{Title: title, User: s.currentUser(ctx), CSRFToken: csrfTokenFrom(ctx)}
}

func (s *Server) currentUser(ctx context.Context) *models.User {
	uid, ok := auth.UserIDFrom(ctx)
	if !ok {
		return nil
	}
	u, err := s.Store.UserByID(ctx, uid)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.Log.Error("load current user", zap.Int64("uid", uid), zap.Error(err))
		}
		return nil
	}
	return &u
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	if err := s.Views.Render(w, status, name, data); err != nil {
		s.serverError(w, r, err)
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r.Context(), "Page not found")
	data.Path = r.URL.Path
	s.render(w, r, http.StatusNotFound, "404.html", data)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.Log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// fail turns a lookup error into 404 for ErrNotFound and 500 otherwise.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, db.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	s.serverError(w, r, err)
}

func postID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, db.ErrNotFound
	}
	return id, nil
}

// ------------------------------------------------------------------------------
// Listings
// ------------------------------------------------------------------------------

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	posts, err := s.Store.ListPosts(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data := s.newPage(ctx, "Latest posts")
	data.Page = paginate.Paginate(posts, paginate.Number(r), paginate.DefaultSize)
	s.render(w, r, http.StatusOK, "index.html", data)
}

func (s *Server) handleGroupPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	group, err := s.Store.GroupBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	posts, err := s.Store.ListGroupPosts(ctx, group.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data := s.newPage(ctx, group.Title)
	data.Group = &group
	data.Page = paginate.Paginate(posts, paginate.Number(r), paginate.DefaultSize)
	s.render(w, r, http.StatusOK, "group_list.html", data)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	author, err := s.Store.UserByUsername(ctx, chi.URLParam(r, "username"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	posts, err := s.Store.ListAuthorPosts(ctx, author.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data := s.newPage(ctx, "Profile of "+author.FullName())
	data.Author = &author
	data.PostCount = len(posts)
	data.Page = paginate.Paginate(posts, paginate.Number(r), paginate.DefaultSize)
	s.render(w, r, http.StatusOK, "profile.html", data)
}

func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	id, err := postID(r)
	if err != nil {
		s.notFound(w, r)
		return
	}
	post, err := s.Store.GetPost(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	count, err := s.Store.CountAuthorPosts(ctx, post.AuthorID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data := s.newPage(ctx, "Post "+post.Title())
	data.Post = &post
	data.PostCount = count
	s.render(w, r, http.StatusOK, "post_detail.html", data)
}

// ------------------------------------------------------------------------------
// Create / edit
// ------------------------------------------------------------------------------

// renderPostForm shows the create or edit page, with errors after a failed submit.
func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, data pageData) {
	groups, err := s.Store.ListGroups(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data.Groups = groups
	s.render(w, r, http.StatusOK, "create_post.html", data)
}

func (s *Server) handlePostCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	data := s.newPage(ctx, "New post")
	if data.User == nil {
		// session points at a user that no longer exists
		http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
		return
	}

	if r.Method != http.MethodPost {
		s.renderPostForm(w, r, data)
		return
	}

	form := forms.BindPostForm(r)
	draft, errs, err := form.Validate(ctx, s.Store)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if len(errs) > 0 {
		data.Form = form
		data.Errors = errs
		s.renderPostForm(w, r, data)
		return
	}

	post := models.Post{AuthorID: data.User.ID}
	draft.ApplyTo(&post)
	if err := s.Store.CreatePost(ctx, &post); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.Metrics.PostsCreated.Inc()
	s.Log.Info("post created",
		zap.Int64("post_id", post.ID),
		zap.String("author", data.User.Username),
		zap.Stringer("post", post),
	)
	http.Redirect(w, r, "/profile/"+data.User.Username+"/", http.StatusFound)
}

func (s *Server) handlePostEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	id, err := postID(r)
	if err != nil {
		s.notFound(w, r)
		return
	}
	post, err := s.Store.GetPost(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	detail := "/posts/" + strconv.FormatInt(post.ID, 10) + "/"
	uid, _ := auth.UserIDFrom(ctx)
	if uid != post.AuthorID {
		s.Metrics.EditDenied.Inc()
		s.Log.Info("edit denied", zap.Int64("post_id", post.ID), zap.Int64("uid", uid))
		http.Redirect(w, r, detail, http.StatusFound)
		return
	}

	data := s.newPage(ctx, "Edit post")
	data.IsEdit = true
	data.Post = &post

	if r.Method != http.MethodPost {
		data.Form = forms.FormFromPost(post)
		s.renderPostForm(w, r, data)
		return
	}

	form := forms.BindPostForm(r)
	draft, errs, err := form.Validate(ctx, s.Store)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if len(errs) > 0 {
		data.Form = form
		data.Errors = errs
		s.renderPostForm(w, r, data)
		return
	}

	draft.ApplyTo(&post)
	if err := s.Store.UpdatePost(ctx, &post); err != nil {
		s.fail(w, r, err)
		return
	}
	s.Metrics.PostsEdited.Inc()
	s.Log.Info("post edited", zap.Int64("post_id", post.ID), zap.Int64("uid", uid))
	http.Redirect(w, r, detail, http.StatusFound)
}
