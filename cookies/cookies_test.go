package cookies

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildTwoPairs(t *testing.T) {
	jar := Build("a=1; b=2")

	entries := jar.Entries()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries (2 pairs x 2 domains), got %d", len(entries))
	}

	// Apex entries precede www entries; pair order preserved within a domain.
	expected := []struct {
		domain, name, value string
	}{
		{".youtube.com", "a", "1"},
		{".youtube.com", "b", "2"},
		{".www.youtube.com", "a", "1"},
		{".www.youtube.com", "b", "2"},
	}
	for i, want := range expected {
		e := entries[i]
		if e.Domain != want.domain || e.Name != want.name || e.Value != want.value {
			t.Errorf("entry %d: got (%s, %s=%s), want (%s, %s=%s)",
				i, e.Domain, e.Name, e.Value, want.domain, want.name, want.value)
		}
		if e.Expires != farFutureExpiry {
			t.Errorf("entry %d: expected far-future expiry, got %d", i, e.Expires)
		}
		if !e.Secure || !e.IncludeSubdomains || e.Path != "/" {
			t.Errorf("entry %d: expected secure include-subdomains path=/ entry, got %+v", i, e)
		}
	}
}

func TestBuildMalformedPieces(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected int
	}{
		{"no equals dropped", "SID=x; garbage; HSID=y", 4},
		{"only garbage", "foo; bar;;", 0},
		{"empty input", "", 0},
		{"value containing equals", "PREF=f1=50", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jar := Build(tt.header)
			if got := len(jar.Entries()); got != tt.expected {
				t.Errorf("expected %d entries, got %d", tt.expected, got)
			}
		})
	}
}

func TestBuildValueWithEquals(t *testing.T) {
	jar := Build("PREF=f1=50")
	entries := jar.Entries()
	if len(entries) == 0 {
		t.Fatal("expected entries")
	}
	if entries[0].Name != "PREF" || entries[0].Value != "f1=50" {
		t.Errorf("split must be on first '=': got %s=%s", entries[0].Name, entries[0].Value)
	}
}

func TestAdoptNetscapeStore(t *testing.T) {
	store := NetscapeSignature + "\n.youtube.com\tTRUE\t/\tTRUE\t2147483647\tSID\tabc"
	jar := Adopt(store)

	if jar.Empty() {
		t.Fatal("adopted store must not be empty")
	}
	out := jar.Netscape()
	if !strings.HasPrefix(out, NetscapeSignature) {
		t.Error("adopted store must keep its signature line")
	}
	if !strings.Contains(out, "SID\tabc") {
		t.Error("adopted store must carry its lines verbatim")
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("serialized store must end with a newline")
	}
}

func TestAdoptHeaderText(t *testing.T) {
	jar := Adopt("a=1")
	if len(jar.Entries()) != 2 {
		t.Errorf("header text should build 2 entries, got %d", len(jar.Entries()))
	}
}

func TestNetscapeSerialization(t *testing.T) {
	jar := Build("a=1")
	out := jar.Netscape()

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected signature + 2 entry lines, got %d: %q", len(lines), out)
	}
	if lines[0] != NetscapeSignature {
		t.Errorf("first line must be the signature, got %q", lines[0])
	}
	want := ".youtube.com\tTRUE\t/\tTRUE\t2147483647\ta\t1"
	if lines[1] != want {
		t.Errorf("entry line mismatch:\ngot:  %q\nwant: %q", lines[1], want)
	}
}

func TestEmptyJar(t *testing.T) {
	jar := Build("")
	if !jar.Empty() {
		t.Error("empty header must yield an empty jar")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.txt")
	jar := Build("a=1")

	if err := jar.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written jar: %v", err)
	}
	if string(data) != jar.Netscape() {
		t.Error("written file must match serialized jar")
	}
}
