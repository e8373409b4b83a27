package recognition

import (
	"fmt"
	"strings"
)

// Site is a reading site with known title layout quirks.
type Site int

const (
	SiteGeneric Site = iota
	SiteRoyalRoad
	SiteScribbleHub
	SiteWuxiaWorld
	SiteBoxNovel
	SiteBadReader
	SiteNovelUpdates
	SiteWebnovel
)

type siteLayout struct {
	key          string
	marker       string
	minTokens    int // 0 means no site-specific reading threshold
	nameIndex    int // -1 means the generic first-token rule applies
	chapterIndex int // -1 means no chapter title is taken from the title bar
}

var siteLayouts = map[Site]siteLayout{
	SiteGeneric:      {key: "generic", nameIndex: -1, chapterIndex: -1},
	SiteRoyalRoad:    {key: "royal_road", marker: "royal road", minTokens: 4, nameIndex: 1, chapterIndex: 0},
	SiteScribbleHub:  {key: "scribble_hub", marker: "scribble hub", nameIndex: -1, chapterIndex: 1},
	SiteWuxiaWorld:   {key: "wuxiaworld", marker: "wuxiaworld", minTokens: 3, nameIndex: -1, chapterIndex: -1},
	SiteBoxNovel:     {key: "boxnovel", marker: "boxnovel", minTokens: 3, nameIndex: -1, chapterIndex: -1},
	SiteBadReader:    {key: "bad_reader", marker: "bad reader", nameIndex: 1, chapterIndex: -1},
	SiteNovelUpdates: {key: "novel_updates", marker: "novel updates", nameIndex: -1, chapterIndex: -1},
	SiteWebnovel:     {key: "webnovel", marker: "webnovel", nameIndex: -1, chapterIndex: -1},
}

// detectionOrder decides which site wins when several markers appear.
var detectionOrder = []Site{
	SiteRoyalRoad,
	SiteScribbleHub,
	SiteWuxiaWorld,
	SiteBoxNovel,
	SiteBadReader,
	SiteNovelUpdates,
	SiteWebnovel,
}

// readingOrder decides which site threshold applies when several markers
// appear. It differs from detectionOrder: WuxiaWorld and BoxNovel outrank
// Royal Road here.
var readingOrder = []Site{
	SiteWuxiaWorld,
	SiteBoxNovel,
	SiteRoyalRoad,
	SiteScribbleHub,
	SiteBadReader,
	SiteNovelUpdates,
	SiteWebnovel,
}

// DetectSite returns the first known site whose name appears in any token.
func DetectSite(tokens []string) Site {
	lowered := lowerAll(tokens)
	for _, site := range detectionOrder {
		if mentions(lowered, siteLayouts[site].marker) {
			return site
		}
	}
	return SiteGeneric
}

func lowerAll(tokens []string) []string {
	lowered := make([]string, len(tokens))
	for i, token := range tokens {
		lowered[i] = strings.ToLower(token)
	}
	return lowered
}

func mentions(lowered []string, marker string) bool {
	for _, token := range lowered {
		if strings.Contains(token, marker) {
			return true
		}
	}
	return false
}

// Key is the stable configuration name of the site.
func (s Site) Key() string {
	if layout, ok := siteLayouts[s]; ok {
		return layout.key
	}
	return "generic"
}

func (s Site) String() string {
	return s.Key()
}

// ParseSite resolves a configuration key such as "royal_road".
func ParseSite(key string) (Site, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
	for site, layout := range siteLayouts {
		if layout.key == normalized {
			return site, nil
		}
	}
	return SiteGeneric, fmt.Errorf("unknown site %q", key)
}

// Heuristics holds the tunable thresholds of the reading-shape check.
type Heuristics struct {
	// MinReadingTokens overrides the minimum token count a title from a site
	// needs before it counts as a chapter page.
	MinReadingTokens map[Site]int
}

// DefaultHeuristics returns the built-in per-site thresholds.
func DefaultHeuristics() Heuristics {
	h := Heuristics{MinReadingTokens: make(map[Site]int)}
	for site, layout := range siteLayouts {
		if layout.minTokens > 0 {
			h.MinReadingTokens[site] = layout.minTokens
		}
	}
	return h
}

// WithOverrides returns a copy of h with the given thresholds applied.
func (h Heuristics) WithOverrides(overrides map[Site]int) Heuristics {
	out := Heuristics{MinReadingTokens: make(map[Site]int, len(h.MinReadingTokens)+len(overrides))}
	for site, n := range h.MinReadingTokens {
		out.MinReadingTokens[site] = n
	}
	for site, n := range overrides {
		if n > 0 {
			out.MinReadingTokens[site] = n
		}
	}
	return out
}

func (h Heuristics) minTokens(site Site) (int, bool) {
	n, ok := h.MinReadingTokens[site]
	return n, ok && n > 0
}
