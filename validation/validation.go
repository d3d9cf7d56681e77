package validation

import (
	"regexp"
	"strings"

	"github.com/AgentDance/yt-subs/config"
	"github.com/AgentDance/yt-subs/errors"
	"github.com/AgentDance/yt-subs/models"
)

// videoIDPattern matches bare 11-character platform IDs and the common URL
// shapes (watch, short-link, shorts, live, embed).
var videoIDPattern = regexp.MustCompile(
	`(?:youtu\.be/|v=|shorts/|live/|embed/)([A-Za-z0-9_-]{11})|^([A-Za-z0-9_-]{11})$`,
)

// NormalizeVideoID extracts an 11-character video ID from a URL or bare ID.
// Unrecognized input is passed through verbatim.
func NormalizeVideoID(urlOrID string) string {
	s := strings.TrimSpace(urlOrID)
	m := videoIDPattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	for _, group := range m[1:] {
		if group != "" {
			return group
		}
	}
	return s
}

type Validator struct {
	config *config.Config
}

func NewValidator(cfg *config.Config) *Validator {
	return &Validator{config: cfg}
}

// ValidateRequest checks the inbound payload and normalizes its format
// field against the configured default.
func (v *Validator) ValidateRequest(req *models.SubtitleRequest) (models.Format, error) {
	const op = "Validator.ValidateRequest"

	if req.Identifier() == "" {
		return "", errors.InvalidInput(op, nil, "Missing 'url_or_id'")
	}

	format := models.ParseFormat(req.Format, models.Format(v.config.DefaultFormat))
	if req.Format != "" && !models.ParseFormat(req.Format, "").Valid() {
		return "", errors.InvalidInput(op, nil, "Format must be 'srt' or 'vtt'")
	}

	return format, nil
}
