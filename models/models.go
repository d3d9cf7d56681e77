package models

import "time"

// Format is a subtitle serialization target.
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// ParseFormat normalizes a raw format value, falling back to the default.
func ParseFormat(raw string, fallback Format) Format {
	switch raw {
	case "srt", "SRT":
		return FormatSRT
	case "vtt", "VTT":
		return FormatVTT
	default:
		return fallback
	}
}

// Valid reports whether the format is a known serialization target.
func (f Format) Valid() bool {
	return f == FormatSRT || f == FormatVTT
}

// ContentType returns the MIME type used when publishing artifacts.
func (f Format) ContentType() string {
	if f == FormatVTT {
		return "text/vtt"
	}
	return "text/plain"
}

// Source identifies which backend produced an artifact.
type Source string

const (
	SourceStructured Source = "structured"
	SourceGeneric    Source = "generic"
)

// Segment is one timed caption snippet as received from a backend.
// Ordering by Start is assumed non-decreasing as received and never re-sorted.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Artifact is the rendered subtitle text for one language plus provenance.
type Artifact struct {
	Lang    string `json:"lang"`
	Format  Format `json:"format"`
	Content string `json:"content"`
	Source  Source `json:"source"`
}

// SubtitleRequest is the inbound API payload.
type SubtitleRequest struct {
	URLOrID          string   `json:"url_or_id"`
	URL              string   `json:"url"`
	ID               string   `json:"id"`
	Langs            []string `json:"langs"`
	Format           string   `json:"format"`
	TranslateMissing *bool    `json:"translate_missing"`
	TTLSeconds       int      `json:"ttl_seconds"`
	CookieHeader     string   `json:"cookie_header"`
}

// Identifier returns the first non-empty identifier field.
func (r *SubtitleRequest) Identifier() string {
	for _, s := range []string{r.URLOrID, r.URL, r.ID} {
		if s != "" {
			return s
		}
	}
	return ""
}

// TTL returns the signing TTL, defaulting to one hour.
func (r *SubtitleRequest) TTL() time.Duration {
	if r.TTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(r.TTLSeconds) * time.Second
}

// Translate reports the translation policy, defaulting to true.
func (r *SubtitleRequest) Translate() bool {
	if r.TranslateMissing == nil {
		return true
	}
	return *r.TranslateMissing
}

// FilePayload is one rendered subtitle file in the API response.
type FilePayload struct {
	Lang       string `json:"lang"`
	Filename   string `json:"filename"`
	StorageURI string `json:"storage_uri,omitempty"`
	SignedURL  string `json:"signed_url,omitempty"`
	Content    string `json:"content"`
}

// SubtitleResponse is the success payload.
type SubtitleResponse struct {
	OK                bool          `json:"ok"`
	VideoID           string        `json:"video_id"`
	Format            string        `json:"format"`
	Files             []FilePayload `json:"files"`
	LanguagesDetected []string      `json:"languages_detected"`
}

// ErrorResponse is the failure payload.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	VideoID string `json:"video_id"`
	Error   string `json:"error"`
}
