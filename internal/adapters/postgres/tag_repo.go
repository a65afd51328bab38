package postgres

import (
	"context"
	"fmt"

	"github.com/pointlab/poinavi/internal/core/domain"
)

// TagRepo implements ports.TagRepository with pgx.
type TagRepo struct {
	db *DB
}

// NewTagRepo creates a new TagRepo.
func NewTagRepo(db *DB) *TagRepo {
	return &TagRepo{db: db}
}

// Create inserts a custom tag.
func (r *TagRepo) Create(ctx context.Context, tag *domain.Tag) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO tags (id, name, created_at)
		VALUES ($1, $2, $3)
	`, tag.ID, tag.Name, tag.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

// Delete removes a custom tag by ID.
func (r *TagRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("tag %s not found", id)
	}
	return nil
}

// ListCustom returns all custom tags ordered by creation time.
func (r *TagRepo) ListCustom(ctx context.Context) ([]domain.Tag, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, created_at
		FROM tags
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.IsCustom = true
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// MarkDefaultDeleted records a built-in tag as hidden.
func (r *TagRepo) MarkDefaultDeleted(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO deleted_default_tags (tag_id)
		VALUES ($1)
		ON CONFLICT (tag_id) DO NOTHING
	`, id)
	if err != nil {
		return fmt.Errorf("mark default deleted: %w", err)
	}
	return nil
}

// ListDeletedDefaults returns the IDs of hidden built-in tags.
func (r *TagRepo) ListDeletedDefaults(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT tag_id FROM deleted_default_tags`)
	if err != nil {
		return nil, fmt.Errorf("list deleted defaults: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
