// Package sqlite implements the artifact cache on an embedded database.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/AgentDance/yt-subs/errors"
	"github.com/AgentDance/yt-subs/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, videoID string, artifact models.Artifact) error {
	const op = "sqlite.Repository.Save"

	for i := 0; i < 3; i++ {
		err := r.save(ctx, videoID, artifact)
		if err == nil {
			return nil
		}
		if !isLockError(err) {
			return errors.Internal(op, err, "failed to save artifact")
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return errors.Internal(op, nil, "failed after retries")
}

func (r *Repository) save(ctx context.Context, videoID string, artifact models.Artifact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO artifacts (video_id, lang, format, source, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id, lang, format) DO UPDATE SET
			source = excluded.source,
			content = excluded.content,
			created_at = excluded.created_at`,
		videoID, artifact.Lang, string(artifact.Format), string(artifact.Source),
		artifact.Content, time.Now().UTC(),
	)
	return err
}

func (r *Repository) Find(ctx context.Context, videoID, lang string, format models.Format) (*models.Artifact, error) {
	const op = "sqlite.Repository.Find"

	artifact := &models.Artifact{Lang: lang, Format: format}
	var source string

	err := r.db.QueryRowContext(ctx, `
		SELECT source, content FROM artifacts
		WHERE video_id = ? AND lang = ? AND format = ?`,
		videoID, lang, string(format),
	).Scan(&source, &artifact.Content)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "artifact not cached")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "failed to query artifact")
	}

	artifact.Source = models.Source(source)
	return artifact, nil
}

func (r *Repository) FindAll(ctx context.Context, videoID string, format models.Format) ([]models.Artifact, error) {
	const op = "sqlite.Repository.FindAll"

	rows, err := r.db.QueryContext(ctx, `
		SELECT lang, source, content FROM artifacts
		WHERE video_id = ? AND format = ?
		ORDER BY lang`,
		videoID, string(format),
	)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to query artifacts")
	}
	defer rows.Close()

	var artifacts []models.Artifact
	for rows.Next() {
		artifact := models.Artifact{Format: format}
		var source string
		if err := rows.Scan(&artifact.Lang, &source, &artifact.Content); err != nil {
			return nil, errors.Internal(op, err, "failed to scan artifact")
		}
		artifact.Source = models.Source(source)
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "failed to iterate artifacts")
	}
	return artifacts, nil
}
