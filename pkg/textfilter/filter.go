// Package textfilter keeps player-written text, such as review comments and
// profile names, gentle enough for the studio.
package textfilter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// replacements maps each blocked word to its softer stand-in.
var replacements = map[string]string{
	"fuck":         "fudge",
	"shit":         "shoot",
	"damn":         "dang",
	"hell":         "heck",
	"ass":          "butt",
	"bitch":        "jerk",
	"bastard":      "jerk",
	"crap":         "crud",
	"piss":         "ticked",
	"cock":         "[censored]",
	"dick":         "jerk",
	"pussy":        "[censored]",
	"tits":         "[censored]",
	"whore":        "[censored]",
	"slut":         "[censored]",
	"fag":          "[censored]",
	"retard":       "[censored]",
	"nigger":       "[censored]",
	"nigga":        "[censored]",
	"spic":         "[censored]",
	"chink":        "[censored]",
	"kike":         "[censored]",
	"motherfucker": "mother-trucker",
	"goddamn":      "gosh-dang",
	"asshole":      "jerk",
	"dumbass":      "dummy",
	"jackass":      "jerk",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"dipshit":      "dummy",
	"shithead":     "jerk",
	"dickhead":     "jerk",
	"prick":        "jerk",
	"douchebag":    "jerk",
	"douche":       "jerk",
}

var whitespace = regexp.MustCompile(`\s+`)

// Filter replaces blocked words in player text.
type Filter struct {
	pattern *regexp.Regexp
}

// New compiles the word list into a single case-insensitive pattern.
func New() *Filter {
	words := make([]string, 0, len(replacements))
	for w := range replacements {
		words = append(words, regexp.QuoteMeta(w))
	}
	// Longest first so compound words win over their stems.
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return &Filter{
		pattern: regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`),
	}
}

// Replace swaps every blocked word for its stand-in, keeping the original's
// capitalisation.
func (f *Filter) Replace(text string) string {
	return f.pattern.ReplaceAllStringFunc(text, func(match string) string {
		return f.matchCase(match, replacements[strings.ToLower(match)])
	})
}

// Contains reports whether text has any blocked word.
func (f *Filter) Contains(text string) bool {
	return f.pattern.MatchString(text)
}

// Clean collapses whitespace, trims, filters and cuts text to at most
// maxRunes runes. A maxRunes of zero or less means no limit.
func (f *Filter) Clean(text string, maxRunes int) string {
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	text = f.Replace(text)
	if maxRunes > 0 {
		if r := []rune(text); len(r) > maxRunes {
			text = strings.TrimSpace(string(r[:maxRunes]))
		}
	}
	return text
}

func (f *Filter) matchCase(original, replacement string) string {
	// A Caser keeps state, so each call gets its own.
	title := cases.Title(language.English)
	switch {
	case original == "":
		return replacement
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return replacement
	case title.String(strings.ToLower(original)) == original:
		return title.String(replacement)
	}

	orig := []rune(original)
	out := []rune(replacement)
	for i := range out {
		if i < len(orig) && unicode.IsUpper(orig[i]) {
			out[i] = unicode.ToUpper(out[i])
		} else {
			out[i] = unicode.ToLower(out[i])
		}
	}
	return string(out)
}
