package repository

import (
	"context"

	"github.com/AgentDance/yt-subs/models"
)

// ArtifactRepository caches rendered subtitle artifacts keyed by
// (video, language, format).
type ArtifactRepository interface {
	Save(ctx context.Context, videoID string, artifact models.Artifact) error
	Find(ctx context.Context, videoID, lang string, format models.Format) (*models.Artifact, error)
	FindAll(ctx context.Context, videoID string, format models.Format) ([]models.Artifact, error)
}
