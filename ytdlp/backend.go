// Package ytdlp drives the yt-dlp executable as the generic extraction
// backend. It rotates client profiles, paces attempts, and backs off on
// rate-limit responses before surfacing exhaustion.
package ytdlp

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/AgentDance/yt-subs/config"
	"github.com/AgentDance/yt-subs/errors"
	"github.com/AgentDance/yt-subs/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// runner executes the extraction tool and returns its combined output.
type runner interface {
	run(ctx context.Context, bin string, args []string) (string, error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, bin string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Request carries the per-call extraction parameters.
type Request struct {
	// Target is the raw URL or identifier exactly as the caller supplied it.
	Target string
	Langs  []string
	Format models.Format
	// CookiesPath points at a Netscape-format cookie file, empty to skip.
	CookiesPath string
}

// Result holds the extracted artifacts and their language codes.
type Result struct {
	Artifacts []models.Artifact
	Languages []string
}

// Backend wraps the extraction tool with profile rotation and pacing.
type Backend struct {
	cfg     config.ExtractorConfig
	tempDir string
	runner  runner
	limiter *rate.Limiter
	logger  *logrus.Logger

	// sleep and the delay generators are swappable for tests.
	sleep   func(time.Duration)
	jitter  func() time.Duration
	backoff func() time.Duration
}

func NewBackend(cfg config.ExtractorConfig, tempDir string) *Backend {
	perMinute := cfg.AttemptsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	return &Backend{
		cfg:     cfg,
		tempDir: tempDir,
		runner:  execRunner{},
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		logger:  logrus.StandardLogger(),
		sleep:   time.Sleep,
		jitter: func() time.Duration {
			return time.Duration(500+rand.Intn(1001)) * time.Millisecond
		},
		backoff: func() time.Duration {
			return time.Duration(3000+rand.Intn(4001)) * time.Millisecond
		},
	}
}

// Fetch runs the extraction tool once per profile until one attempt yields
// subtitle files. Rate-limited attempts take an extended backoff before the
// next profile; attempts that merely produce nothing advance immediately.
func (b *Backend) Fetch(ctx context.Context, req Request) (*Result, error) {
	const op = "ytdlp.Backend.Fetch"

	var lastErr error
	for i, profile := range profileCatalog {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, errors.Internal(op, err, "extraction cancelled")
		}
		b.sleep(b.jitter())

		result, err := b.attempt(ctx, req, profile)
		if err == nil && len(result.Artifacts) > 0 {
			return result, nil
		}

		log := b.logger.WithFields(logrus.Fields{
			"target":  req.Target,
			"profile": profile.PlayerClients,
			"attempt": i + 1,
		})
		switch {
		case err != nil && errors.KindOf(err) == errors.KindExtractionTransient:
			lastErr = err
			log.WithError(err).Warn("Extraction rate limited, backing off")
			b.sleep(b.backoff())
		case err != nil:
			lastErr = err
			log.WithError(err).Warn("Extraction attempt failed")
		default:
			log.Info("Extraction produced no subtitle files")
		}
	}

	return nil, errors.Classified(op, errors.KindExtractionExhausted, lastErr,
		"all extraction profiles exhausted", http.StatusBadGateway)
}

func (b *Backend) attempt(ctx context.Context, req Request, profile Profile) (*Result, error) {
	scratch := filepath.Join(b.tempDir, uuid.New().String())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, errors.Internal("ytdlp.Backend.attempt", err, "failed to create scratch directory")
	}
	defer os.RemoveAll(scratch)

	output, err := b.runner.run(ctx, b.cfg.BinPath, b.buildArgs(req, profile, scratch))
	if err != nil {
		// The tool reports the HTTP condition on stderr, not the exit code.
		return nil, classifyOutput(err, output)
	}

	return collectFiles(scratch, req.Format)
}

func (b *Backend) buildArgs(req Request, profile Profile, scratch string) []string {
	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-format", string(req.Format),
		"--convert-subs", string(req.Format),
		"--extractor-args", "youtube:player_client=" + profile.PlayerClients,
		"--user-agent", androidUserAgent,
		"--socket-timeout", fmt.Sprintf("%d", int(b.cfg.SocketTimeout.Seconds())),
		"--retries", fmt.Sprintf("%d", b.cfg.Retries),
		"--limit-rate", fmt.Sprintf("%d", b.cfg.ThrottledRate),
		"-o", "%(title).80s-%(id)s.%(ext)s",
		"-P", scratch,
	}

	if len(req.Langs) > 0 {
		args = append(args, "--sub-langs", strings.Join(req.Langs, ","))
		head := req.Langs
		if len(head) > 3 {
			head = head[:3]
		}
		args = append(args, "--add-headers", "Accept-Language:"+strings.Join(head, ","))
	} else {
		args = append(args, "--sub-langs", "all")
	}

	if req.CookiesPath != "" {
		args = append(args, "--cookies", req.CookiesPath)
	}

	return append(args, req.Target)
}

// rateLimitMarkers are the substrings the tool emits when throttled or
// gated. A 403 here almost always means the client identity is burned.
var rateLimitMarkers = []string{"429", "Too Many Requests", "403"}

func classifyOutput(err error, output string) error {
	const op = "ytdlp.Backend.attempt"
	combined := err.Error()
	if output != "" {
		combined = output
	}
	kind := errors.KindExtractionOther
	for _, marker := range rateLimitMarkers {
		if strings.Contains(combined, marker) {
			kind = errors.KindExtractionTransient
			break
		}
	}
	return errors.Classified(op, kind,
		fmt.Errorf("%s: %w", firstLine(combined), err),
		"extraction attempt failed", http.StatusBadGateway)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// collectFiles gathers every subtitle file an attempt wrote and removes
// them as it goes. The language code is the second-to-last dot segment of
// the filename, matching the tool's "<title>-<id>.<lang>.<ext>" template.
func collectFiles(scratch string, format models.Format) (*Result, error) {
	const op = "ytdlp.collectFiles"

	matches, err := filepath.Glob(filepath.Join(scratch, "*."+string(format)))
	if err != nil {
		return nil, errors.Internal(op, err, "failed to scan scratch directory")
	}

	result := &Result{}
	for _, path := range matches {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Internal(op, err, "failed to read subtitle file")
		}
		lang := langFromFilename(filepath.Base(path))
		result.Artifacts = append(result.Artifacts, models.Artifact{
			Lang:    lang,
			Format:  format,
			Content: string(content),
			Source:  models.SourceGeneric,
		})
		result.Languages = append(result.Languages, lang)
		os.Remove(path)
	}
	return result, nil
}

func langFromFilename(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) < 3 {
		return "unknown"
	}
	return parts[len(parts)-2]
}
