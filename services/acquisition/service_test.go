package acquisition

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/AgentDance/yt-subs/config"
	"github.com/AgentDance/yt-subs/errors"
	"github.com/AgentDance/yt-subs/models"
	"github.com/AgentDance/yt-subs/transcript"
	"github.com/AgentDance/yt-subs/ytdlp"
)

type fakeStructured struct {
	result *transcript.Result
	err    error
	calls  int
}

func (f *fakeStructured) Fetch(_ context.Context, _ string, _ transcript.Request) (*transcript.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeGeneric struct {
	result  *ytdlp.Result
	err     error
	calls   int
	lastReq ytdlp.Request
}

func (f *fakeGeneric) Fetch(_ context.Context, req ytdlp.Request) (*ytdlp.Result, error) {
	f.calls++
	f.lastReq = req
	return f.result, f.err
}

type fakeRepo struct {
	store map[string]models.Artifact
	saved int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{store: make(map[string]models.Artifact)}
}

func (f *fakeRepo) key(videoID, lang string, format models.Format) string {
	return videoID + "|" + lang + "|" + string(format)
}

func (f *fakeRepo) Save(_ context.Context, videoID string, a models.Artifact) error {
	f.store[f.key(videoID, a.Lang, a.Format)] = a
	f.saved++
	return nil
}

func (f *fakeRepo) Find(_ context.Context, videoID, lang string, format models.Format) (*models.Artifact, error) {
	a, ok := f.store[f.key(videoID, lang, format)]
	if !ok {
		return nil, errors.NotFound("fakeRepo.Find", nil, "artifact not cached")
	}
	return &a, nil
}

func (f *fakeRepo) FindAll(_ context.Context, videoID string, format models.Format) ([]models.Artifact, error) {
	var out []models.Artifact
	for k, a := range f.store {
		if strings.HasPrefix(k, videoID+"|") && a.Format == format {
			out = append(out, a)
		}
	}
	return out, nil
}

func artifact(lang string, source models.Source) models.Artifact {
	return models.Artifact{Lang: lang, Format: models.FormatSRT, Content: "body", Source: source}
}

func TestAcquireStructuredFirst(t *testing.T) {
	structured := &fakeStructured{result: &transcript.Result{
		Artifacts: []models.Artifact{artifact("en", models.SourceStructured)},
		Languages: []string{"en"},
	}}
	generic := &fakeGeneric{}
	svc := NewService(structured, generic, nil, config.CookiesConfig{}, t.TempDir())

	result, err := svc.Acquire(context.Background(), "abc123def45", models.FormatSRT,
		&models.SubtitleRequest{URLOrID: "abc123def45", Langs: []string{"en"}})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if generic.calls != 0 {
		t.Error("generic backend must not run when structured succeeds")
	}
	if len(result.Artifacts) != 1 || result.Artifacts[0].Source != models.SourceStructured {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAcquireFallsBackOnStructuredError(t *testing.T) {
	structured := &fakeStructured{err: errors.Classified("t", errors.KindCaptionsDisabled, nil, "disabled", http.StatusNotFound)}
	generic := &fakeGeneric{result: &ytdlp.Result{
		Artifacts: []models.Artifact{artifact("en", models.SourceGeneric)},
		Languages: []string{"en"},
	}}
	svc := NewService(structured, generic, nil, config.CookiesConfig{}, t.TempDir())

	result, err := svc.Acquire(context.Background(), "abc123def45", models.FormatSRT,
		&models.SubtitleRequest{URLOrID: "https://youtu.be/abc123def45"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if result.Artifacts[0].Source != models.SourceGeneric {
		t.Errorf("expected generic artifact, got %+v", result.Artifacts[0])
	}
	// The fallback gets the untouched original target, not the bare ID.
	if generic.lastReq.Target != "https://youtu.be/abc123def45" {
		t.Errorf("unexpected fallback target %q", generic.lastReq.Target)
	}
}

func TestAcquireFallsBackOnEmptyStructuredResult(t *testing.T) {
	structured := &fakeStructured{result: &transcript.Result{Languages: []string{"ko"}}}
	generic := &fakeGeneric{result: &ytdlp.Result{
		Artifacts: []models.Artifact{artifact("en", models.SourceGeneric)},
		Languages: []string{"en"},
	}}
	svc := NewService(structured, generic, nil, config.CookiesConfig{}, t.TempDir())

	result, err := svc.Acquire(context.Background(), "abc123def45", models.FormatSRT,
		&models.SubtitleRequest{URLOrID: "abc123def45", Langs: []string{"en"}})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if generic.calls != 1 {
		t.Error("expected fallback after empty structured result")
	}
	// Discovered languages from both paths are merged.
	if len(result.Languages) != 2 || result.Languages[0] != "en" || result.Languages[1] != "ko" {
		t.Errorf("unexpected languages %v", result.Languages)
	}
}

func TestAcquireGenericFailureIsBadGateway(t *testing.T) {
	structured := &fakeStructured{err: errors.Classified("t", errors.KindVideoUnavailable, nil, "gone", http.StatusNotFound)}
	generic := &fakeGeneric{err: errors.Classified("y", errors.KindExtractionExhausted, nil, "exhausted", http.StatusBadGateway)}
	svc := NewService(structured, generic, nil, config.CookiesConfig{}, t.TempDir())

	_, err := svc.Acquire(context.Background(), "abc123def45", models.FormatSRT,
		&models.SubtitleRequest{URLOrID: "abc123def45"})
	if status := errors.StatusOf(err); status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d (err: %v)", status, err)
	}
}

func TestAcquireNothingAnywhereIsNotFound(t *testing.T) {
	structured := &fakeStructured{result: &transcript.Result{}}
	generic := &fakeGeneric{result: &ytdlp.Result{}}
	svc := NewService(structured, generic, nil, config.CookiesConfig{}, t.TempDir())

	_, err := svc.Acquire(context.Background(), "abc123def45", models.FormatSRT,
		&models.SubtitleRequest{URLOrID: "abc123def45"})
	if kind := errors.KindOf(err); kind != errors.KindNoArtifact {
		t.Fatalf("expected KindNoArtifact, got %v (err: %v)", kind, err)
	}
	if status := errors.StatusOf(err); status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestAcquireServesFromCache(t *testing.T) {
	repo := newFakeRepo()
	repo.Save(context.Background(), "abc123def45", artifact("en", models.SourceStructured))

	structured := &fakeStructured{}
	generic := &fakeGeneric{}
	svc := NewService(structured, generic, repo, config.CookiesConfig{}, t.TempDir())

	result, err := svc.Acquire(context.Background(), "abc123def45", models.FormatSRT,
		&models.SubtitleRequest{URLOrID: "abc123def45", Langs: []string{"en"}})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if structured.calls != 0 || generic.calls != 0 {
		t.Error("cache hit must not touch backends")
	}
	if len(result.Artifacts) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAcquirePartialCacheMissFetches(t *testing.T) {
	repo := newFakeRepo()
	repo.Save(context.Background(), "abc123def45", artifact("en", models.SourceStructured))
	repo.saved = 0

	structured := &fakeStructured{result: &transcript.Result{
		Artifacts: []models.Artifact{artifact("en", models.SourceStructured), artifact("ja", models.SourceStructured)},
		Languages: []string{"en", "ja"},
	}}
	svc := NewService(structured, &fakeGeneric{}, repo, config.CookiesConfig{}, t.TempDir())

	_, err := svc.Acquire(context.Background(), "abc123def45", models.FormatSRT,
		&models.SubtitleRequest{URLOrID: "abc123def45", Langs: []string{"en", "ja"}})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if structured.calls != 1 {
		t.Error("expected backend fetch on partial cache miss")
	}
	if repo.saved != 2 {
		t.Errorf("expected both artifacts cached, got %d saves", repo.saved)
	}
}

func TestAcquireEmptyLangsBypassesCache(t *testing.T) {
	repo := newFakeRepo()
	repo.Save(context.Background(), "abc123def45", artifact("en", models.SourceStructured))

	structured := &fakeStructured{result: &transcript.Result{
		Artifacts: []models.Artifact{artifact("en", models.SourceStructured)},
		Languages: []string{"en"},
	}}
	svc := NewService(structured, &fakeGeneric{}, repo, config.CookiesConfig{}, t.TempDir())

	_, err := svc.Acquire(context.Background(), "abc123def45", models.FormatSRT,
		&models.SubtitleRequest{URLOrID: "abc123def45"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if structured.calls != 1 {
		t.Error("discovery requests must bypass the cache")
	}
}

func TestAcquireRequestScopedCookies(t *testing.T) {
	structured := &fakeStructured{err: errors.Classified("t", errors.KindCaptionsDisabled, nil, "disabled", http.StatusNotFound)}
	generic := &fakeGeneric{result: &ytdlp.Result{
		Artifacts: []models.Artifact{artifact("en", models.SourceGeneric)},
	}}
	svc := NewService(structured, generic, nil, config.CookiesConfig{Path: "/nonexistent/cookies.txt"}, t.TempDir())

	_, err := svc.Acquire(context.Background(), "abc123def45", models.FormatSRT,
		&models.SubtitleRequest{URLOrID: "abc123def45", CookieHeader: "SID=abc; HSID=def"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if generic.lastReq.CookiesPath == "" {
		t.Fatal("expected a request-scoped cookie file")
	}
	// The private cookie file is removed once the request completes.
	if _, statErr := os.Stat(generic.lastReq.CookiesPath); !os.IsNotExist(statErr) {
		t.Errorf("cookie file %s should be cleaned up", generic.lastReq.CookiesPath)
	}
}
