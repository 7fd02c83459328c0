package imagematch

import (
	"strings"
	"unicode"

	"github.com/agentstation/pimsync/internal/matcher"
	"github.com/agentstation/pimsync/internal/textnorm"
)

// colorCodePrefixes are the single-letter families PIM color codes use,
// in the order they are tried.
var colorCodePrefixes = []string{"C", "B", "G", "R", "N", "W", "P", "Y", "O", "K", "M", "T"}

var colorCodePatterns = func() *matcher.MultiMatcher {
	patterns := make([]string, len(colorCodePrefixes))
	for i, p := range colorCodePrefixes {
		patterns[i] = p + `\d+`
	}
	mm, err := matcher.NewMultiMatcher(patterns, matcher.Options{WordBounded: true})
	if err != nil {
		panic(err)
	}
	return mm
}()

// ColorCodePatterns lists the code patterns in evaluation order.
func ColorCodePatterns() []string {
	return colorCodePatterns.Patterns()
}

// ExtractColorCode pulls the color code out of a variant color label.
// Labels are tried against the prefix patterns first ("Bubble Pink C129"),
// then the trailing token of "Name - CODE". ok is false when the label
// carries no code.
func ExtractColorCode(label string) (code string, ok bool) {
	label = strings.TrimSpace(label)
	if code, ok := colorCodePatterns.Find(label); ok {
		return code, true
	}
	if i := strings.LastIndex(label, " - "); i >= 0 {
		token := strings.TrimSpace(label[i+3:])
		if token != "" && isCodeToken(token) {
			return strings.ToUpper(token), true
		}
	}
	return "", false
}

func isCodeToken(s string) bool {
	hasDigit := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r), r == '-', r == '_':
		default:
			return false
		}
	}
	// "Navy - Blue" is a name, not a code.
	return hasDigit || strings.ToUpper(s) == s && len(s) <= 6
}

// ColorName strips the code and separators from a label:
// "Bubble Pink - C129" becomes "Bubble Pink".
func ColorName(label, code string) string {
	name := strings.TrimSpace(label)
	if code != "" {
		if i := strings.LastIndex(strings.ToUpper(name), strings.ToUpper(code)); i >= 0 {
			name = name[:i] + name[i+len(code):]
		}
	}
	name = strings.Trim(name, " -_/()")
	return strings.Join(strings.Fields(name), " ")
}

// synonymGroups hold color names merchandisers use interchangeably.
var synonymGroups = [][]string{
	{"burgundy", "bordeaux", "wine", "maroon", "oxblood"},
	{"navy", "marine", "midnight"},
	{"grey", "gray", "heather", "melange"},
	{"white", "ecru", "ivory", "cream", "natural"},
	{"black", "noir", "jet"},
	{"red", "rouge", "scarlet"},
	{"pink", "rose", "blush"},
	{"khaki", "olive", "army"},
	{"beige", "sand", "stone", "desert"},
	{"brown", "chocolate", "coffee", "mocha"},
	{"yellow", "mustard", "ochre"},
	{"purple", "violet", "lilac", "lavender"},
	{"turquoise", "teal", "aqua"},
}

var synonyms = func() map[string][]string {
	m := make(map[string][]string)
	for _, g := range synonymGroups {
		for _, w := range g {
			for _, other := range g {
				if other != w {
					m[w] = append(m[w], other)
				}
			}
		}
	}
	return m
}()

// Synonyms returns the known alternatives for a single color word.
func Synonyms(word string) []string {
	return synonyms[textnorm.Fold(word)]
}
