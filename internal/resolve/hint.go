package resolve

import (
	"regexp"
	"strings"
)

// ParsedHint is an (artist, title) pair mined from a non-catalog search
// result title. Both fields are non-empty.
type ParsedHint struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

var (
	parenRegex  = regexp.MustCompile(`\([^()]*\)`)
	spaceRegex  = regexp.MustCompile(`\s+`)
	formatNoise = regexp.MustCompile(`(?i)\s*\b(?:vinyl|lp|cd|cassette|record|tape)\b.*$`)

	// Greedy first group: the split happens at the last " by ".
	byPattern = regexp.MustCompile(`(?i)^(.+)\s+by\s+(.+)$`)
	// Lazy first group: the split happens at the first spaced dash.
	dashPattern = regexp.MustCompile(`^(.+?)\s+[-–—]\s+(.+)$`)
)

// trailingSeparators are left dangling when format noise is cut from
// titles such as "Kind of Blue - Vinyl".
const trailingSeparators = " -–—:|,("

// ExtractHint derives an artist and title from a noisy result title such as
// "Kind of Blue by Davis, Miles (Vinyl, 1959)" or "Miles Davis - Kind of Blue".
//
// The "<title> by <artist>" form is tried before "<artist> - <title>".
// Titles that legitimately contain " by " or a spaced dash are split
// wrongly; this is a heuristic, not a parser.
//
// Format noise is cut from its first occurrence anywhere in the title, so a
// name containing a noise word loses everything after it: "The Record
// Company - Off the Ground" cleans to "The" and yields no hint.
func ExtractHint(rawTitle string) (ParsedHint, bool) {
	cleaned := cleanTitle(rawTitle)
	if cleaned == "" {
		return ParsedHint{}, false
	}

	if m := byPattern.FindStringSubmatch(cleaned); m != nil {
		title, artist := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if title != "" && artist != "" {
			return ParsedHint{Artist: artist, Title: title}, true
		}
	}

	if m := dashPattern.FindStringSubmatch(cleaned); m != nil {
		artist, title := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if artist != "" && title != "" {
			return ParsedHint{Artist: artist, Title: title}, true
		}
	}

	return ParsedHint{}, false
}

// cleanTitle removes parenthetical annotations and a trailing format
// description. Applying it twice gives the same result as applying it once.
func cleanTitle(s string) string {
	for {
		next := parenRegex.ReplaceAllString(s, " ")
		if next == s {
			break
		}
		s = next
	}
	s = spaceRegex.ReplaceAllString(s, " ")
	s = formatNoise.ReplaceAllString(s, "")
	s = strings.TrimRight(s, trailingSeparators)
	return strings.TrimSpace(s)
}
