package transcript

import (
	"sort"

	"github.com/AgentDance/yt-subs/models"
)

// Track is one caption track in the platform's catalog.
type Track struct {
	BaseURL        string
	Name           string
	LanguageCode   string
	Kind           string // "asr" for auto-generated tracks
	IsTranslatable bool
}

// TrackList is the caption catalog for one video, in catalog order.
type TrackList struct {
	Tracks []Track
}

// Find returns the first track exactly matching the language code.
func (tl *TrackList) Find(lang string) (Track, bool) {
	for _, t := range tl.Tracks {
		if t.LanguageCode == lang {
			return t, true
		}
	}
	return Track{}, false
}

// Languages returns the sorted set of discovered language codes.
func (tl *TrackList) Languages() []string {
	seen := make(map[string]struct{}, len(tl.Tracks))
	var langs []string
	for _, t := range tl.Tracks {
		if _, ok := seen[t.LanguageCode]; ok {
			continue
		}
		seen[t.LanguageCode] = struct{}{}
		langs = append(langs, t.LanguageCode)
	}
	sort.Strings(langs)
	return langs
}

// Request carries the per-call parameters into the backend.
type Request struct {
	Langs            []string
	Format           models.Format
	TranslateMissing bool
}

// Result is the backend outcome: rendered artifacts plus the languages
// discovered in the catalog (used for the response metadata even when a
// language produced no artifact).
type Result struct {
	Artifacts []models.Artifact
	Languages []string
}
