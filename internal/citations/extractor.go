// Package citations detects references to source documents in assistant
// responses. Extraction is pure text processing against an in-memory
// registry; it never touches the network or the filesystem.
package citations

import (
	"regexp"
	"sort"
	"strings"
)

// Pattern identifies which matcher found a citation.
type Pattern string

const (
	// PatternBracketed matches a filename in square brackets: [report.pdf].
	PatternBracketed Pattern = "bracketed"
	// PatternLabeled matches a filename after a source label such as
	// "Source:", "Quelle:", "aus" or "from".
	PatternLabeled Pattern = "labeled"
	// PatternConverted matches the .pdf.txt names produced by text
	// conversion of source PDFs; the .txt suffix is dropped.
	PatternConverted Pattern = "converted"
	// PatternBare matches a standalone word-boundary-delimited filename.
	PatternBare Pattern = "bare"
)

// Citation is a detected reference to a registry document.
type Citation struct {
	Filename string  `json:"filename"` // canonical registry name
	Pattern  Pattern `json:"pattern"`
}

// Registry answers membership queries for known document names. Lookups are
// case-insensitive on the basename and return the canonical on-disk name.
type Registry interface {
	Canonical(name string) (string, bool)
}

type matcher struct {
	pattern Pattern
	re      *regexp.Regexp
}

// matchers is the ordered matching policy. All matchers run over the full
// text and their results are unioned.
var matchers = []matcher{
	{PatternBracketed, regexp.MustCompile(`(?i)\[([^\[\]]+\.pdf)\]`)},
	{PatternLabeled, regexp.MustCompile(`(?i)(?:Source|Quelle):\s*([^,\n]+?\.pdf)`)},
	{PatternLabeled, regexp.MustCompile(`(?i)(?:^|\s)(?:aus|from)\s+(?:dem\s+Dokument\s+)?([^\s,]+\.pdf)`)},
	{PatternConverted, regexp.MustCompile(`(?i)([A-Za-z0-9_€().\-]+\.pdf)\.txt`)},
	{PatternBare, regexp.MustCompile(`(?i)(?:^|\s)([A-Za-z0-9_€().\-]+\.pdf)(?:[\s,.;:!?)]|$)`)},
}

// trailingPunct strips punctuation left over at the end of a match.
var trailingPunct = regexp.MustCompile(`[.,;:!?]+$`)

// Extract scans text for document references and returns the citations that
// resolve against the registry, ordered by first appearance in the text and
// deduplicated case-insensitively. Mentions of unknown documents are
// discarded. Blank text yields no citations.
func Extract(text string, reg Registry) (result []Citation) {
	defer func() {
		if recover() != nil {
			result = nil
		}
	}()

	if reg == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	type hit struct {
		pos int
		c   Citation
	}
	var hits []hit

	for _, m := range matchers {
		for _, idx := range m.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[idx[2]:idx[3]]
			name := trailingPunct.ReplaceAllString(strings.TrimSpace(raw), "")
			if name == "" {
				continue
			}
			canonical, ok := reg.Canonical(name)
			if !ok {
				continue
			}
			hits = append(hits, hit{pos: idx[2], c: Citation{Filename: canonical, Pattern: m.pattern}})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool)
	for _, h := range hits {
		key := strings.ToLower(h.c.Filename)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, h.c)
	}
	return result
}

// Filenames returns just the filenames of the given citations, in order.
func Filenames(cs []Citation) []string {
	if len(cs) == 0 {
		return nil
	}
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Filename
	}
	return names
}
