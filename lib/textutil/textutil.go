package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// HeadingSimilarity is the minimum Jaro-Winkler similarity for MatchHeading to consider
// a heading equal to a wanted one.
const HeadingSimilarity = 0.9

// MatchHeading reports whether a heading contains one of keywords, or is similar enough
// to one of titles to tolerate small copy edits on the source page.
func MatchHeading(heading string, keywords, titles []string) bool {
	heading = NormalizeName(heading)
	if heading == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(heading, NormalizeName(k)) {
			return true
		}
	}
	for _, title := range titles {
		if matchr.JaroWinkler(heading, NormalizeName(title), false) >= HeadingSimilarity {
			return true
		}
	}
	return false
}

// IsUpper reports whether s has at least one cased letter and no lower-case letters.
func IsUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}
