package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edforge/edforge/internal/model"
)

// PostgresStore is a PostgreSQL-backed Store implementation. AIMetadata
// is stored as jsonb.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed version store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateVersion(ctx context.Context, v model.ContentVersion) (model.ContentVersion, error) {
	metadata, err := marshalMetadata(v.AIMetadata)
	if err != nil {
		return model.ContentVersion{}, err
	}
	// Deriving the number inside the INSERT keeps concurrent creates for
	// the same lesson from racing a separate read-then-increment.
	err = s.pool.QueryRow(ctx,
		`INSERT INTO content_versions (lesson_id, author_id, version_number, content, change_description, status, ai_metadata)
		 SELECT $1::uuid, $2, COALESCE(MAX(version_number), 0) + 1, $3, $4, $5, $6
		 FROM content_versions WHERE lesson_id = $1::uuid
		 RETURNING id::text, version_number, created_at`,
		v.LessonID, v.AuthorID, v.Content, v.ChangeDescription, v.Status, metadata,
	).Scan(&v.ID, &v.VersionNumber, &v.CreatedAt)
	if err != nil {
		return model.ContentVersion{}, fmt.Errorf("create content version: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) GetVersion(ctx context.Context, id string) (model.ContentVersion, error) {
	var v model.ContentVersion
	var metadata []byte
	var approvedBy *string
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, lesson_id::text, author_id, version_number, content, change_description, status, ai_metadata, created_at, approved_at, approved_by
		 FROM content_versions WHERE id = $1::uuid`,
		id,
	).Scan(&v.ID, &v.LessonID, &v.AuthorID, &v.VersionNumber, &v.Content, &v.ChangeDescription, &v.Status, &metadata, &v.CreatedAt, &v.ApprovedAt, &approvedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ContentVersion{}, fmt.Errorf("content version %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.ContentVersion{}, fmt.Errorf("get content version: %w", err)
	}
	if approvedBy != nil {
		v.ApprovedBy = *approvedBy
	}
	if err := unmarshalMetadata(metadata, &v.AIMetadata); err != nil {
		return model.ContentVersion{}, err
	}
	return v, nil
}

func (s *PostgresStore) UpdateVersion(ctx context.Context, v model.ContentVersion) error {
	cmd, err := s.pool.Exec(ctx,
		`UPDATE content_versions
		 SET status = $2, approved_at = $3, approved_by = $4
		 WHERE id = $1::uuid`,
		v.ID, v.Status, v.ApprovedAt, nullIfEmpty(v.ApprovedBy),
	)
	if err != nil {
		return fmt.Errorf("update content version: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("content version %s: %w", v.ID, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListVersionsByLesson(ctx context.Context, lessonID string) ([]model.ContentVersion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, lesson_id::text, author_id, version_number, content, change_description, status, ai_metadata, created_at, approved_at, approved_by
		 FROM content_versions WHERE lesson_id = $1::uuid
		 ORDER BY version_number DESC`,
		lessonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list content versions: %w", err)
	}
	defer rows.Close()

	var out []model.ContentVersion
	for rows.Next() {
		var v model.ContentVersion
		var metadata []byte
		var approvedBy *string
		if err := rows.Scan(&v.ID, &v.LessonID, &v.AuthorID, &v.VersionNumber, &v.Content, &v.ChangeDescription, &v.Status, &metadata, &v.CreatedAt, &v.ApprovedAt, &approvedBy); err != nil {
			return nil, fmt.Errorf("scan content version: %w", err)
		}
		if approvedBy != nil {
			v.ApprovedBy = *approvedBy
		}
		if err := unmarshalMetadata(metadata, &v.AIMetadata); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal ai metadata: %w", err)
	}
	return b, nil
}

func unmarshalMetadata(b []byte, dest *map[string]any) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("unmarshal ai metadata: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
