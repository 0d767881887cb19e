package db

import (
	"context"
	"fmt"

	"yatube/internal/models"
)

// Every listing joins the author and the optional group so templates can
// link to both without extra queries.
const postSelect = `
SELECT
  p.id, p.text, p.created_at, p.author_id, p.group_id,
  u.username, u.first_name, u.last_name,
  g.title, g.slug, g.description
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN groups g ON g.id = p.group_id
`

const postOrder = `ORDER BY p.created_at DESC, p.id DESC`

func scanPost(row interface{ Scan(...any) error }) (models.Post, error) {
	var (
		p                    models.Post
		gTitle, gSlug, gDesc *string
	)
	err := row.Scan(
		&p.ID, &p.Text, &p.CreatedAt, &p.AuthorID, &p.GroupID,
		&p.Author.Username, &p.Author.FirstName, &p.Author.LastName,
		&gTitle, &gSlug, &gDesc,
	)
	if err != nil {
		return models.Post{}, err
	}
	p.Author.ID = p.AuthorID
	if p.GroupID != nil && gSlug != nil {
		p.Group = &models.Group{ID: *p.GroupID, Slug: *gSlug}
		if gTitle != nil {
			p.Group.Title = *gTitle
		}
		if gDesc != nil {
			p.Group.Description = *gDesc
		}
	}
	return p, nil
}

func (s *Store) listPosts(ctx context.Context, where string, args ...any) ([]models.Post, error) {
	rows, err := s.q.Query(ctx, postSelect+where+postOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("posts query: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("posts scan: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("posts rows: %w", err)
	}
	return posts, nil
}

// ListPosts returns every post, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.listPosts(ctx, "")
}

func (s *Store) ListGroupPosts(ctx context.Context, groupID int64) ([]models.Post, error) {
	return s.listPosts(ctx, "WHERE p.group_id = $1\n", groupID)
}

func (s *Store) ListAuthorPosts(ctx context.Context, authorID int64) ([]models.Post, error) {
	return s.listPosts(ctx, "WHERE p.author_id = $1\n", authorID)
}

func (s *Store) CountAuthorPosts(ctx context.Context, authorID int64) (int, error) {
	var n int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE author_id = $1`, authorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func (s *Store) GetPost(ctx context.Context, id int64) (models.Post, error) {
	p, err := scanPost(s.q.QueryRow(ctx, postSelect+"WHERE p.id = $1\n", id))
	if err != nil {
		return models.Post{}, notFound(err)
	}
	return p, nil
}

// CreatePost inserts p for p.AuthorID and fills ID and CreatedAt from the database.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO posts (text, author_id, group_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		p.Text, p.AuthorID, p.GroupID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// UpdatePost writes text and group only; author and created_at are never touched.
func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE posts SET text = $1, group_id = $2 WHERE id = $3`,
		p.Text, p.GroupID, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update post %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
