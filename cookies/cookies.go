// Package cookies builds Netscape-format cookie jars for the platform
// domains from raw Cookie header text or an existing cookies.txt store.
package cookies

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// NetscapeSignature is the fixed leading line of a cookies.txt store.
const NetscapeSignature = "# Netscape HTTP Cookie File"

// farFutureExpiry keeps entries effectively non-expiring within the
// format's numeric range.
const farFutureExpiry int64 = 2147483647

// jarDomains lists the apex and www domains, in output order.
var jarDomains = []string{".youtube.com", ".www.youtube.com"}

// Entry is one cookie line in a Netscape store.
type Entry struct {
	Domain            string
	IncludeSubdomains bool
	Path              string
	Secure            bool
	Expires           int64
	Name              string
	Value             string
}

// Jar is a structured cookie store. A zero Jar is valid and empty.
type Jar struct {
	entries []Entry
	raw     string
}

// Build parses "NAME=VALUE; NAME2=VALUE2" header text into a jar with one
// entry per pair for the apex and www domains. Pieces without an "=" are
// discarded; malformed input yields fewer entries, never an error.
func Build(header string) Jar {
	var pairs [][2]string
	for _, piece := range strings.Split(header, ";") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		name, value, ok := strings.Cut(piece, "=")
		if !ok {
			continue
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(name), strings.TrimSpace(value)})
	}

	var jar Jar
	for _, domain := range jarDomains {
		for _, kv := range pairs {
			jar.entries = append(jar.entries, Entry{
				Domain:            domain,
				IncludeSubdomains: true,
				Path:              "/",
				Secure:            true,
				Expires:           farFutureExpiry,
				Name:              kv[0],
				Value:             kv[1],
			})
		}
	}
	return jar
}

// Adopt accepts cookie text that may already be a Netscape store, detected
// by its signature line, and otherwise treats it as header text.
func Adopt(text string) Jar {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, NetscapeSignature) {
		if !strings.HasSuffix(trimmed, "\n") {
			trimmed += "\n"
		}
		return Jar{raw: trimmed}
	}
	return Build(text)
}

// Entries returns the structured entries. Adopted stores expose no
// structured entries; their text is carried verbatim.
func (j Jar) Entries() []Entry {
	return j.entries
}

// Empty reports whether the jar carries no cookie data at all.
func (j Jar) Empty() bool {
	return len(j.entries) == 0 && j.raw == ""
}

// Netscape serializes the jar as cookies.txt content.
func (j Jar) Netscape() string {
	if j.raw != "" {
		return j.raw
	}
	lines := []string{NetscapeSignature}
	for _, e := range j.entries {
		include := "FALSE"
		if e.IncludeSubdomains {
			include = "TRUE"
		}
		secure := "FALSE"
		if e.Secure {
			secure = "TRUE"
		}
		lines = append(lines, strings.Join([]string{
			e.Domain, include, e.Path, secure,
			fmt.Sprintf("%d", e.Expires), e.Name, e.Value,
		}, "\t"))
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteFile persists the jar to path, creating parent directories.
func (j Jar) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(j.Netscape()), 0o600)
}

// Hydrate writes secret cookie text to path at process start. It accepts
// either a Netscape store or header text and is best-effort: failure is
// logged, never fatal.
func Hydrate(text, path string, log *logrus.Logger) {
	if strings.TrimSpace(text) == "" {
		return
	}
	jar := Adopt(text)
	if err := jar.WriteFile(path); err != nil {
		log.WithError(err).WithField("path", path).Warn("Cookie hydration failed")
		return
	}
	log.WithField("path", path).Info("Cookie jar hydrated from secret")
}
