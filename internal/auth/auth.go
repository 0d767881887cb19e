// internal/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"yatube/internal/db"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrInvalidLogin  = errors.New("invalid username or password")
	ErrNoSession     = errors.New("session not found")
	ErrWeakPassword  = errors.New("password must be at least 8 characters")
	ErrMissingFields = errors.New("username and password are required")
	ErrNameTooLong   = errors.New("username, first name and last name must be at most 150 characters")
)

const (
	MinPasswordLen = 8
	MaxNameLen     = 150 // users.username, first_name, last_name are VARCHAR(150)
)

// CheckNames rejects a missing username and any name longer than MaxNameLen.
func CheckNames(username, firstName, lastName string) error {
	if strings.TrimSpace(username) == "" {
		return ErrMissingFields
	}
	for _, n := range []string{username, firstName, lastName} {
		if utf8.RuneCountInString(strings.TrimSpace(n)) > MaxNameLen {
			return ErrNameTooLong
		}
	}
	return nil
}

// ----------------------------
// Context helpers (middleware and handlers)
// ----------------------------

type ctxKeyUserID struct{}

func WithUserID(ctx context.Context, uid int64) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	v := ctx.Value(ctxKeyUserID{})
	if v == nil {
		return 0, false
	}
	id, _ := v.(int64)
	return id, id != 0
}

// Service owns users' credentials and their sessions.
type Service struct {
	DB  db.Querier
	Log *zap.Logger
}

func NewService(q db.Querier, log *zap.Logger) *Service {
	return &Service{DB: q, Log: log}
}

// ----------------------------
// Register
// ----------------------------

type Registration struct {
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// Register creates a user and returns its id.
func (s *Service) Register(ctx context.Context, reg Registration) (int64, error) {
	username := strings.TrimSpace(reg.Username)
	if username == "" || reg.Password == "" {
		return 0, ErrMissingFields
	}
	if err := CheckNames(username, reg.FirstName, reg.LastName); err != nil {
		return 0, err
	}
	if len(reg.Password) < MinPasswordLen {
		return 0, ErrWeakPassword
	}

	var exists int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM users WHERE username = $1`, username).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check username: %w", err)
	}
	if exists > 0 {
		return 0, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	var uid int64
	err = s.DB.QueryRow(ctx, `
		INSERT INTO users (username, first_name, last_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		username, strings.TrimSpace(reg.FirstName), strings.TrimSpace(reg.LastName), string(hash),
	).Scan(&uid)
	// the UNIQUE constraint still wins a race between the check and the insert
	if db.IsUniqueViolation(err, "") {
		return 0, ErrUsernameTaken
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	s.Log.Info("user registered", zap.String("username", username), zap.Int64("uid", uid))
	return uid, nil
}

// ----------------------------
// Login (UUID session with expiry)
// ----------------------------

func (s *Service) Login(ctx context.Context, username, password string, lifetime time.Duration) (string, int64, error) {
	username = strings.TrimSpace(username)

	var uid int64
	var passwdHash string

	err := s.DB.QueryRow(ctx, `SELECT id, password_hash FROM users WHERE username = $1`, username).Scan(&uid, &passwdHash)
	if errors.Is(err, pgx.ErrNoRows) {
		s.Log.Info("login: unknown user", zap.String("username", username))
		return "", 0, ErrInvalidLogin
	}
	if err != nil {
		return "", 0, fmt.Errorf("query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(password)); err != nil {
		s.Log.Info("login: bad password", zap.String("username", username))
		return "", 0, ErrInvalidLogin
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// expired sessions of this user are dropped on every login
	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1 AND expires_at < now()`, uid); err != nil {
		return "", 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	sid := uuid.New().String()
	exp := time.Now().Add(lifetime)
	if _, err := tx.Exec(ctx,
		`INSERT INTO sessions (id, user_id, expires_at) VALUES ($1, $2, $3)`,
		sid, uid, exp,
	); err != nil {
		return "", 0, fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", 0, fmt.Errorf("commit: %w", err)
	}

	s.Log.Info("login ok", zap.String("username", username), zap.Int64("uid", uid))
	return sid, uid, nil
}

// ----------------------------
// Logout
// ----------------------------

func (s *Service) Logout(ctx context.Context, sid string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sid)
	return err
}

// ----------------------------
// UserFromSession: resolves the cookie to (uid, expires)
// ----------------------------

func (s *Service) UserFromSession(ctx context.Context, sid string) (int64, time.Time, error) {
	if _, err := uuid.Parse(sid); err != nil {
		return 0, time.Time{}, ErrNoSession
	}

	var uid int64
	var exp time.Time
	err := s.DB.QueryRow(ctx, `SELECT user_id, expires_at FROM sessions WHERE id = $1`, sid).Scan(&uid, &exp)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, time.Time{}, ErrNoSession
	}
	if err != nil {
		return 0, time.Time{}, err
	}
	return uid, exp, nil
}

// HashPassword is used by the admin CLI to create users directly.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLen {
		return "", ErrWeakPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
