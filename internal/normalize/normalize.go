// Package normalize canonicalizes task titles for equality comparison.
// The canonical form is used only as a deduplication key and is never
// displayed.
package normalize

import "strings"

// abbreviations maps common course-name shorthand to its expansion.
// Tokens are matched after lowercasing and stripping punctuation, so
// "HIST." and "hist" both expand to "history". Course numbers pass
// through untouched, which lets "HIST 101" match "history 101" without
// matching "HIST 111".
var abbreviations = map[string]string{
	"hist":   "history",
	"bio":    "biology",
	"chem":   "chemistry",
	"phys":   "physics",
	"math":   "mathematics",
	"eng":    "english",
	"sci":    "science",
	"comp":   "computer",
	"cs":     "computer science",
	"psych":  "psychology",
	"econ":   "economics",
	"phil":   "philosophy",
	"geo":    "geography",
	"soc":    "sociology",
	"anthro": "anthropology",
	"calc":   "calculus",
	"stats":  "statistics",
	"comm":   "communications",
}

// Title returns the canonical form of a title: lowercased, whitespace
// tokenized, with recognized abbreviations expanded. Unrecognized
// tokens keep their lowercased form. Total on any input; the empty
// string normalizes to itself.
func Title(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))
	if lowered == "" {
		return ""
	}

	words := strings.Fields(lowered)
	for i, w := range words {
		if full, ok := abbreviations[stripToken(w)]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

// stripToken removes everything but ASCII letters and digits so that
// punctuation never hides an abbreviation.
func stripToken(w string) string {
	var b strings.Builder
	for _, r := range w {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
