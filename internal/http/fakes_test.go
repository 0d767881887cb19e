package httpx

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yatube/internal/app"
	"yatube/internal/auth"
	"yatube/internal/db"
	"yatube/internal/metrics"
	"yatube/internal/models"
	"yatube/internal/util"
)

// memStore is an in-memory Store with the same ordering and not-found
// behaviour as the PostgreSQL one.
type memStore struct {
	mu      sync.Mutex
	users   map[int64]models.User
	groups  map[int64]models.Group
	posts   map[int64]models.Post
	nextID  int64
	clock   time.Time
	pingErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[int64]models.User{},
		groups: map[int64]models.Group{},
		posts:  map[int64]models.Post{},
		clock:  time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addUser(username string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := models.User{ID: m.id(), Username: username}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addGroup(title, slug string) models.Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := models.Group{ID: m.id(), Title: title, Slug: slug, Description: "about " + title}
	m.groups[g.ID] = g
	return g
}

func (m *memStore) addPost(author models.User, text string, group *models.Group) models.Post {
	p := models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		gid := group.ID
		p.GroupID = &gid
	}
	if err := m.CreatePost(context.Background(), &p); err != nil {
		panic(err)
	}
	return p
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts)
}

func (m *memStore) raw(id int64) models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts[id]
}

func (m *memStore) hydrate(p models.Post) models.Post {
	p.Author = m.users[p.AuthorID]
	p.Group = nil
	if p.GroupID != nil {
		if g, ok := m.groups[*p.GroupID]; ok {
			p.Group = &g
		}
	}
	return p
}

func (m *memStore) list(keep func(models.Post) bool) []models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Post
	for _, p := range m.posts {
		if keep(p) {
			out = append(out, m.hydrate(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memStore) ListPosts(context.Context) ([]models.Post, error) {
	return m.list(func(models.Post) bool { return true }), nil
}

func (m *memStore) ListGroupPosts(_ context.Context, groupID int64) ([]models.Post, error) {
	return m.list(func(p models.Post) bool { return p.GroupID != nil && *p.GroupID == groupID }), nil
}

func (m *memStore) ListAuthorPosts(_ context.Context, authorID int64) ([]models.Post, error) {
	return m.list(func(p models.Post) bool { return p.AuthorID == authorID }), nil
}

func (m *memStore) CountAuthorPosts(ctx context.Context, authorID int64) (int, error) {
	posts, _ := m.ListAuthorPosts(ctx, authorID)
	return len(posts), nil
}

func (m *memStore) GetPost(_ context.Context, id int64) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return models.Post{}, db.ErrNotFound
	}
	return m.hydrate(p), nil
}

func (m *memStore) CreatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[p.AuthorID]; !ok {
		return errors.New("author violates foreign key")
	}
	p.ID = m.id()
	m.clock = m.clock.Add(time.Minute)
	p.CreatedAt = m.clock
	stored := *p
	stored.Author, stored.Group = models.User{}, nil
	m.posts[p.ID] = stored
	return nil
}

func (m *memStore) UpdatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.posts[p.ID]
	if !ok {
		return db.ErrNotFound
	}
	cur.Text = p.Text
	cur.GroupID = p.GroupID
	m.posts[p.ID] = cur
	return nil
}

func (m *memStore) GroupBySlug(_ context.Context, slug string) (models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.Slug == slug {
			return g, nil
		}
	}
	return models.Group{}, db.ErrNotFound
}

func (m *memStore) GroupByID(_ context.Context, id int64) (models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return models.Group{}, db.ErrNotFound
	}
	return g, nil
}

func (m *memStore) ListGroups(context.Context) ([]models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Group
	for _, g := range m.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *memStore) UserByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, db.ErrNotFound
}

func (m *memStore) UserByID(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, db.ErrNotFound
	}
	return u, nil
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

// fakeAuth accepts "<username>-password" for every user in the store and
// issues session ids of the form "sid-<uid>".
type fakeAuth struct {
	store    *memStore
	sessions map[string]int64
}

func newFakeAuth(store *memStore) *fakeAuth {
	return &fakeAuth{store: store, sessions: map[string]int64{}}
}

func (a *fakeAuth) sessionFor(u models.User) string {
	sid := fmt.Sprintf("sid-%d", u.ID)
	a.sessions[sid] = u.ID
	return sid
}

func (a *fakeAuth) Register(ctx context.Context, reg auth.Registration) (int64, error) {
	if err := auth.CheckNames(reg.Username, reg.FirstName, reg.LastName); err != nil {
		return 0, err
	}
	if _, err := a.store.UserByUsername(ctx, reg.Username); err == nil {
		return 0, auth.ErrUsernameTaken
	}
	if len(reg.Password) < auth.MinPasswordLen {
		return 0, auth.ErrWeakPassword
	}
	return a.store.addUser(reg.Username).ID, nil
}

func (a *fakeAuth) Login(ctx context.Context, username, password string, _ time.Duration) (string, int64, error) {
	u, err := a.store.UserByUsername(ctx, username)
	if err != nil || password != username+"-password" {
		return "", 0, auth.ErrInvalidLogin
	}
	return a.sessionFor(u), u.ID, nil
}

func (a *fakeAuth) Logout(_ context.Context, sid string) error {
	delete(a.sessions, sid)
	return nil
}

func (a *fakeAuth) UserFromSession(_ context.Context, sid string) (int64, time.Time, error) {
	uid, ok := a.sessions[sid]
	if !ok {
		return 0, time.Time{}, auth.ErrNoSession
	}
	return uid, time.Now().Add(time.Hour), nil
}

func newTestServer(t *testing.T) (*Server, *memStore, *fakeAuth) {
	t.Helper()
	store := newMemStore()
	authn := newFakeAuth(store)
	views, err := util.NewRenderer()
	require.NoError(t, err)

	cfg := app.Config{SessionLifetime: time.Hour, Environment: "test"}
	srv := NewServer(store, authn, cfg, zap.NewNop(), metrics.NewCollector("yatube_test"), views)
	return srv, store, authn
}
