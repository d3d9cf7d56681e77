// Package transcript implements the structured caption backend: it queries
// the platform's caption catalog, resolves language tracks, and falls back
// to machine translation for missing languages.
package transcript

import (
	"context"
	"sort"

	"github.com/AgentDance/yt-subs/config"
	"github.com/AgentDance/yt-subs/models"
	"github.com/AgentDance/yt-subs/subtitle"
	"github.com/sirupsen/logrus"
)

// probeLanguages is the fixed probe list used when the catalog capability
// is unavailable and the request names no languages.
var probeLanguages = []string{"en", "en-US", "en-GB", "zh-Hans", "zh-Hant", "ja", "es"}

type strategy interface {
	fetch(ctx context.Context, videoID string, req Request) (*Result, error)
}

// Backend exposes one uniform contract over the two catalog capabilities:
// bulk track listing and per-language probing. The capability is resolved
// once at construction.
type Backend struct {
	strategy strategy
	logger   *logrus.Logger
}

func NewBackend(client *Client, cfg config.TranscriptConfig) *Backend {
	var s strategy
	if cfg.CatalogEnabled {
		s = &catalogStrategy{client: client, logger: logrus.StandardLogger()}
	} else {
		s = &probeStrategy{client: client, logger: logrus.StandardLogger()}
	}
	return &Backend{strategy: s, logger: logrus.StandardLogger()}
}

// Fetch acquires caption artifacts for the video. Per-language misses are
// silent; video-level conditions surface as a single classified error.
func (b *Backend) Fetch(ctx context.Context, videoID string, req Request) (*Result, error) {
	return b.strategy.fetch(ctx, videoID, req)
}

type catalogStrategy struct {
	client *Client
	logger *logrus.Logger
}

func (s *catalogStrategy) fetch(ctx context.Context, videoID string, req Request) (*Result, error) {
	list, err := s.client.ListTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	discovered := list.Languages()
	targets := req.Langs
	if len(targets) == 0 {
		targets = discovered
	}

	result := &Result{Languages: discovered}
	for _, lang := range targets {
		segments := s.fetchLanguage(ctx, videoID, list, lang, req.TranslateMissing)
		if segments == nil {
			s.logger.WithFields(logrus.Fields{
				"video_id": videoID,
				"lang":     lang,
			}).Info("No transcript for language")
			continue
		}
		result.Artifacts = append(result.Artifacts, models.Artifact{
			Lang:    lang,
			Format:  req.Format,
			Content: subtitle.Render(segments, req.Format),
			Source:  models.SourceStructured,
		})
	}
	return result, nil
}

// fetchLanguage resolves one target language: exact track first, then the
// first translatable track in catalog order when translation is allowed.
// A nil return means the language is simply unavailable; failure of one
// language never aborts the others.
func (s *catalogStrategy) fetchLanguage(ctx context.Context, videoID string, list *TrackList, lang string, translateMissing bool) []models.Segment {
	if track, ok := list.Find(lang); ok {
		segments, err := s.client.FetchTrack(ctx, track, "")
		if err == nil {
			return segments
		}
		s.logger.WithError(err).WithFields(logrus.Fields{
			"video_id": videoID,
			"lang":     lang,
		}).Warn("Exact track fetch failed")
	}

	if !translateMissing {
		return nil
	}

	for _, track := range list.Tracks {
		if !track.IsTranslatable {
			continue
		}
		segments, err := s.client.FetchTrack(ctx, track, lang)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"video_id":    videoID,
				"lang":        lang,
				"source_lang": track.LanguageCode,
			}).Debug("Translation attempt failed")
			continue
		}
		return segments
	}
	return nil
}

type probeStrategy struct {
	client *Client
	logger *logrus.Logger
}

func (s *probeStrategy) fetch(ctx context.Context, videoID string, req Request) (*Result, error) {
	targets := req.Langs
	if len(targets) == 0 {
		targets = probeLanguages
	}

	result := &Result{}
	for _, lang := range targets {
		segments, err := s.client.Probe(ctx, videoID, lang)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"video_id": videoID,
				"lang":     lang,
			}).Debug("Probe miss")
			continue
		}
		result.Languages = append(result.Languages, lang)
		result.Artifacts = append(result.Artifacts, models.Artifact{
			Lang:    lang,
			Format:  req.Format,
			Content: subtitle.Render(segments, req.Format),
			Source:  models.SourceStructured,
		})
	}
	sort.Strings(result.Languages)
	return result, nil
}
