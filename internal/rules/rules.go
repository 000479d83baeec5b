// Package rules holds the compiled-in category rule table and the classifier
// that maps a filename and size to a destination folder.
//
// Matching is by extension string only. Rules are evaluated in order and the
// first rule whose extension set contains the file's extension decides the
// destination; a file matching no rule has no destination.
package rules

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/harrison/downsort/internal/config"
)

// Category names a rule.
type Category string

const (
	Audio      Category = "audio"
	Video      Category = "video"
	Image      Category = "image"
	Document   Category = "document"
	STL        Category = "stl"
	SolidWorks Category = "solidworks"
)

var (
	audioExtensions      = []string{".m4a", ".flac", ".mp3", ".wav", ".wma", ".aac"}
	videoExtensions      = []string{".webm", ".mpg", ".mp2", ".mpeg", ".mpe", ".mpv", ".ogg", ".mp4", ".mp4v", ".m4v", ".avi", ".wmv", ".mov", ".qt", ".flv", ".swf", ".avchd"}
	documentExtensions   = []string{".doc", ".docx", ".odt", ".pdf", ".xls", ".xlsx", ".ppt", ".pptx"}
	stlExtensions        = []string{".stl", ".3mf"}
	solidworksExtensions = []string{".sldprt", ".sldasm", ".slddrw"}
	imageExtensions      = []string{
		".jpg", ".jpeg", ".jpe", ".jif", ".jfif", ".jfi", ".png", ".gif", ".webp", ".tiff", ".tif", ".psd", ".raw", ".arw", ".cr2", ".nrw",
		".k25", ".bmp", ".dib", ".heif", ".heic", ".ind", ".indd", ".indt", ".jp2", ".j2k", ".jpf", ".jpx", ".jpm", ".mj2", ".svg", ".svgz", ".ai", ".eps", ".ico",
	}
)

// AudioSplit routes audio either to a short/SFX destination or to a music
// destination based on size and a filename marker.
type AudioSplit struct {
	Threshold int64
	Marker    string
	Short     config.Destination
	Long      config.Destination
}

// route returns Short when size < Threshold or the uppercased name contains Marker.
func (s *AudioSplit) route(name string, size int64) config.Destination {
	if size < s.Threshold || strings.Contains(strings.ToUpper(name), strings.ToUpper(s.Marker)) {
		return s.Short
	}
	return s.Long
}

// Rule maps a set of extensions to a destination.
type Rule struct {
	Category    Category
	Extensions  []string
	Destination config.Destination
	// Split is set only for audio; it replaces Destination when present.
	Split *AudioSplit

	set map[string]struct{}
}

// Matches reports whether ext (any case, dot-prefixed) belongs to the rule.
func (r *Rule) Matches(ext string) bool {
	_, ok := r.set[strings.ToLower(ext)]
	return ok
}

// NeedsSize reports whether the rule consults the file size.
func (r *Rule) NeedsSize() bool {
	return r.Split != nil
}

// Decision is the result of a successful classification.
type Decision struct {
	Category    Category
	Destination config.Destination
}

// Table is an immutable ordered list of rules.
type Table struct {
	rules []*Rule
	index map[string]int
}

// New builds a table from rules, rejecting empty or overlapping extension sets.
func New(rules ...Rule) (*Table, error) {
	t := &Table{index: make(map[string]int)}
	for i := range rules {
		r := rules[i]
		if len(r.Extensions) == 0 {
			return nil, fmt.Errorf("rule %q has no extensions", r.Category)
		}
		r.set = make(map[string]struct{}, len(r.Extensions))
		for _, ext := range r.Extensions {
			norm := strings.ToLower(strings.TrimSpace(ext))
			if !strings.HasPrefix(norm, ".") {
				norm = "." + norm
			}
			if prev, exists := t.index[norm]; exists {
				return nil, fmt.Errorf("extension %s claimed by both %q and %q", norm, t.rules[prev].Category, r.Category)
			}
			r.set[norm] = struct{}{}
			t.index[norm] = len(t.rules)
		}
		t.rules = append(t.rules, &r)
	}
	return t, nil
}

// Default returns the compiled-in rule table using cfg's audio threshold and marker.
func Default(cfg config.Config) *Table {
	t, err := New(
		Rule{
			Category:   Audio,
			Extensions: audioExtensions,
			Split: &AudioSplit{
				Threshold: cfg.AudioThreshold,
				Marker:    cfg.SFXMarker,
				Short:     config.DestSFX,
				Long:      config.DestMusic,
			},
		},
		Rule{Category: Video, Extensions: videoExtensions, Destination: config.DestVideo},
		Rule{Category: Image, Extensions: imageExtensions, Destination: config.DestImage},
		Rule{Category: Document, Extensions: documentExtensions, Destination: config.DestDocument},
		Rule{Category: STL, Extensions: stlExtensions, Destination: config.DestSTL},
		Rule{Category: SolidWorks, Extensions: solidworksExtensions, Destination: config.DestSolidWorks},
	)
	if err != nil {
		// compiled-in data; an overlap is a programming error
		panic(err)
	}
	return t
}

// Rules returns the rules in evaluation order.
func (t *Table) Rules() []*Rule {
	out := make([]*Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Match returns the first rule whose extension set contains name's extension.
func (t *Table) Match(name string) (*Rule, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return nil, false
	}
	for _, r := range t.rules {
		if r.Matches(ext) {
			return r, true
		}
	}
	return nil, false
}

// Classify returns the destination for a file, or false when no rule matches.
func (t *Table) Classify(name string, size int64) (Decision, bool) {
	r, ok := t.Match(name)
	if !ok {
		return Decision{}, false
	}
	return decide(r, name, size), true
}

// Sizer is a file whose size can be queried on demand.
type Sizer interface {
	Name() string
	Size() (int64, error)
}

// ClassifyEntry classifies e, querying its size only when the matching rule needs it.
func (t *Table) ClassifyEntry(e Sizer) (Decision, bool, error) {
	r, ok := t.Match(e.Name())
	if !ok {
		return Decision{}, false, nil
	}
	var size int64
	if r.NeedsSize() {
		var err error
		size, err = e.Size()
		if err != nil {
			return Decision{}, false, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
	}
	return decide(r, e.Name(), size), true, nil
}

func decide(r *Rule, name string, size int64) Decision {
	if r.Split != nil {
		return Decision{Category: r.Category, Destination: r.Split.route(name, size)}
	}
	return Decision{Category: r.Category, Destination: r.Destination}
}
