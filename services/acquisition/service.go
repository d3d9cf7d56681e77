// Package acquisition orchestrates the two caption backends: the structured
// transcript API first, then the generic extraction tool when the structured
// path yields nothing.
package acquisition

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/AgentDance/yt-subs/config"
	"github.com/AgentDance/yt-subs/cookies"
	"github.com/AgentDance/yt-subs/errors"
	"github.com/AgentDance/yt-subs/models"
	"github.com/AgentDance/yt-subs/repository"
	"github.com/AgentDance/yt-subs/transcript"
	"github.com/AgentDance/yt-subs/ytdlp"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StructuredBackend is the caption catalog path.
type StructuredBackend interface {
	Fetch(ctx context.Context, videoID string, req transcript.Request) (*transcript.Result, error)
}

// GenericBackend is the extraction-tool fallback path.
type GenericBackend interface {
	Fetch(ctx context.Context, req ytdlp.Request) (*ytdlp.Result, error)
}

// Result is the acquisition outcome handed to the HTTP layer.
type Result struct {
	VideoID   string
	Artifacts []models.Artifact
	Languages []string
}

type Service struct {
	structured StructuredBackend
	generic    GenericBackend
	repo       repository.ArtifactRepository // nil disables caching
	cookies    config.CookiesConfig
	tempDir    string
	logger     *logrus.Logger
}

func NewService(
	structured StructuredBackend,
	generic GenericBackend,
	repo repository.ArtifactRepository,
	cookiesCfg config.CookiesConfig,
	tempDir string,
) *Service {
	return &Service{
		structured: structured,
		generic:    generic,
		repo:       repo,
		cookies:    cookiesCfg,
		tempDir:    tempDir,
		logger:     logrus.StandardLogger(),
	}
}

// Acquire resolves subtitle artifacts for one request: cache, then the
// structured backend, then the generic fallback. The fallback receives the
// caller's original target string untouched.
func (s *Service) Acquire(ctx context.Context, videoID string, format models.Format, req *models.SubtitleRequest) (*Result, error) {
	const op = "acquisition.Service.Acquire"

	if cached := s.fromCache(ctx, videoID, format, req.Langs); cached != nil {
		return cached, nil
	}

	cookiesPath, cleanup, err := s.resolveCookies(req.CookieHeader)
	if err != nil {
		s.logger.WithError(err).Warn("Cookie material unusable, continuing without")
		cookiesPath = ""
	}
	if cleanup != nil {
		defer cleanup()
	}

	result := &Result{VideoID: videoID}

	structured, err := s.structured.Fetch(ctx, videoID, transcript.Request{
		Langs:            req.Langs,
		Format:           format,
		TranslateMissing: req.Translate(),
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"video_id": videoID,
			"kind":     errors.KindOf(err),
		}).Info("Structured backend unusable, falling back")
	} else {
		result.Artifacts = structured.Artifacts
		result.Languages = structured.Languages
	}

	if len(result.Artifacts) == 0 {
		generic, err := s.generic.Fetch(ctx, ytdlp.Request{
			Target:      req.Identifier(),
			Langs:       req.Langs,
			Format:      format,
			CookiesPath: cookiesPath,
		})
		if err != nil {
			return nil, errors.Classified(op, errors.KindOf(err), err,
				"subtitle extraction failed", http.StatusBadGateway)
		}
		result.Artifacts = generic.Artifacts
		result.Languages = mergeLanguages(result.Languages, generic.Languages)
	}

	if len(result.Artifacts) == 0 {
		return nil, errors.Classified(op, errors.KindNoArtifact, nil,
			"no subtitles available for this video", http.StatusNotFound)
	}

	s.toCache(ctx, videoID, result.Artifacts)
	return result, nil
}

// fromCache serves a request entirely from the cache, but only when the
// caller named explicit languages and every one of them is present.
func (s *Service) fromCache(ctx context.Context, videoID string, format models.Format, langs []string) *Result {
	if s.repo == nil || len(langs) == 0 {
		return nil
	}

	result := &Result{VideoID: videoID}
	for _, lang := range langs {
		artifact, err := s.repo.Find(ctx, videoID, lang, format)
		if err != nil {
			if !errors.IsNotFound(err) {
				s.logger.WithError(err).Warn("Cache lookup failed")
			}
			return nil
		}
		result.Artifacts = append(result.Artifacts, *artifact)
		result.Languages = append(result.Languages, lang)
	}

	s.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"langs":    langs,
	}).Info("Serving subtitles from cache")
	return result
}

func (s *Service) toCache(ctx context.Context, videoID string, artifacts []models.Artifact) {
	if s.repo == nil {
		return
	}
	for _, artifact := range artifacts {
		if err := s.repo.Save(ctx, videoID, artifact); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"video_id": videoID,
				"lang":     artifact.Lang,
			}).Warn("Failed to cache artifact")
		}
	}
}

// resolveCookies picks the cookie file for this request. A request-scoped
// cookie header takes priority over the process-wide hydrated file and is
// written to a private file removed when the request finishes.
func (s *Service) resolveCookies(header string) (string, func(), error) {
	if header != "" {
		jar := cookies.Build(header)
		path := filepath.Join(s.tempDir, "cookies-"+uuid.New().String()+".txt")
		if err := jar.WriteFile(path); err != nil {
			return "", nil, err
		}
		return path, func() { os.Remove(path) }, nil
	}

	if s.cookies.Path != "" {
		if _, err := os.Stat(s.cookies.Path); err == nil {
			return s.cookies.Path, nil, nil
		}
	}
	return "", nil, nil
}

func mergeLanguages(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var merged []string
	for _, lang := range append(append([]string{}, a...), b...) {
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		merged = append(merged, lang)
	}
	sort.Strings(merged)
	return merged
}
