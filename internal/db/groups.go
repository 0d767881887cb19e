package db

import (
	"context"
	"fmt"

	"yatube/internal/models"
)

const groupColumns = `id, title, slug, description`

func scanGroup(row interface{ Scan(...any) error }) (models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Title, &g.Slug, &g.Description)
	return g, err
}

func (s *Store) GroupBySlug(ctx context.Context, slug string) (models.Group, error) {
	g, err := scanGroup(s.q.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE slug = $1`, slug))
	if err != nil {
		return models.Group{}, notFound(err)
	}
	return g, nil
}

func (s *Store) GroupByID(ctx context.Context, id int64) (models.Group, error) {
	g, err := scanGroup(s.q.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id))
	if err != nil {
		return models.Group{}, notFound(err)
	}
	return g, nil
}

// ListGroups returns all groups ordered by title, for the post form selector.
func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := s.q.Query(ctx, `SELECT `+groupColumns+` FROM groups ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("groups query: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("groups scan: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// CreateGroup inserts g and fills its ID. A taken slug yields ErrConflict.
func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	err := s.q.QueryRow(ctx,
		`INSERT INTO groups (title, slug, description) VALUES ($1, $2, $3) RETURNING id`,
		g.Title, g.Slug, g.Description,
	).Scan(&g.ID)
	if IsUniqueViolation(err, "") {
		return fmt.Errorf("group %q: %w", g.Slug, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}
