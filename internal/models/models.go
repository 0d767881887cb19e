package models

import "time"

type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// FullName falls back to the username when no name was given at signup.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Group struct {
	ID          int64
	Title       string
	Slug        string
	Description string
}

func (g Group) String() string { return g.Title }

// Post always has an author; Group is nil for uncategorised posts.
// Author and Group are filled by the listing queries for display.
type Post struct {
	ID        int64
	Text      string
	CreatedAt time.Time
	AuthorID  int64
	GroupID   *int64

	Author User
	Group  *Group
}

// String returns the first 15 characters of the text.
func (p Post) String() string { return Truncate(p.Text, 15) }

// Title is used for the detail page <title>.
func (p Post) Title() string { return Truncate(p.Text, 30) }

func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
