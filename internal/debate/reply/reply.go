// Package reply extracts structured coaching fields from free-text model replies.
package reply

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// scoreRe matches "Score: 7", "score - 6.5", "SCORE – 8" and similar.
	scoreRe           = regexp.MustCompile(`(?i)\bscore\s*[:\-–]\s*(\d+(?:\.\d+)?)`)
	counterargumentRe = regexp.MustCompile(`(?im)^[ \t]*counter[- ]?argument[ \t]*[:\-–][ \t]*(.+?)[ \t]*$`)
	coachingTipRe     = regexp.MustCompile(`(?im)^[ \t]*coaching[ \t]+tip[ \t]*[:\-–][ \t]*(.+?)[ \t]*$`)
	blankRunRe        = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)
)

var emphasisMarkers = []string{"**", "__"}

// Parsed holds the fields extracted from one model reply.
type Parsed struct {
	Counterargument string
	// Score is nil when the reply carries no recognizable score.
	Score       *float64
	CoachingTip string
	// RawText is the cleaned reply, used for display and narration.
	RawText string
}

// HasScore reports whether a score was extracted.
func (p Parsed) HasScore() bool { return p.Score != nil }

// Clean strips emphasis markers and collapses runs of blank lines.
// Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	for stripped := false; !stripped; {
		stripped = true
		for _, marker := range emphasisMarkers {
			if strings.Contains(s, marker) {
				s = strings.ReplaceAll(s, marker, "")
				stripped = false
			}
		}
	}
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Parse never fails: missing or malformed fields are left empty.
func Parse(raw string) Parsed {
	text := Clean(raw)
	return Parsed{
		Counterargument: firstGroup(counterargumentRe, text),
		Score:           ExtractScore(text),
		CoachingTip:     firstGroup(coachingTipRe, text),
		RawText:         text,
	}
}

// ExtractScore returns the first labelled score in text, or nil.
func ExtractScore(text string) *float64 {
	m := scoreRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

func firstGroup(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return ""
}
