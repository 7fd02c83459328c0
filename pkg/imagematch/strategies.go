package imagematch

import (
	"path"
	"strings"

	"github.com/agentstation/pimsync/internal/matcher"
	"github.com/agentstation/pimsync/internal/textnorm"
)

// Candidate is an image attached to the product, eligible to become a
// variant's main image.
type Candidate struct {
	AssetID  string `json:"asset_id" yaml:"asset_id"`
	FileName string `json:"file_name" yaml:"file_name"`
	Alt      string `json:"alt,omitempty" yaml:"alt,omitempty"`
}

func (c Candidate) stem() string {
	return strings.TrimSuffix(c.FileName, path.Ext(c.FileName))
}

// texts are the labels a candidate is matched on.
func (c Candidate) texts() []string {
	out := make([]string, 0, 2)
	if s := c.stem(); s != "" {
		out = append(out, s)
	}
	if c.Alt != "" {
		out = append(out, c.Alt)
	}
	return out
}

func (c Candidate) words() map[string]bool {
	w := make(map[string]bool)
	for _, t := range c.texts() {
		for _, word := range textnorm.Words(t) {
			w[word] = true
		}
	}
	return w
}

// target is the color being matched for one product.
type target struct {
	styleID string
	label   string
	code    string
	name    string
}

func newTarget(styleID, label string) target {
	code, _ := ExtractColorCode(label)
	return target{styleID: styleID, label: label, code: code, name: ColorName(label, code)}
}

// Strategy names, in cascade order.
const (
	StrategyStyleColor   = "style-color"
	StrategyCode         = "color-code"
	StrategyNameContains = "name-substring"
	StrategyNameWord     = "name-word"
	StrategySynonym      = "synonym"
	StrategyExactLabel   = "exact-label"
	StrategySingleWord   = "single-word"
)

func (t target) cascade() *matcher.Cascade[Candidate] {
	var styleColor, code matcher.Matcher
	if t.code != "" {
		styleColor = matcher.Literal(t.styleID+"_"+t.code, matcher.Options{CaseInsensitive: true, WordBounded: true})
		code = matcher.Literal(t.code, matcher.Options{CaseInsensitive: true, WordBounded: true})
	}
	// labels are compared as their words joined by single spaces, so
	// "Off-White" and "off white detail" line up
	nameWords := textnorm.Words(t.name)
	name := strings.Join(nameWords, " ")
	joined := func(s string) string { return strings.Join(textnorm.Words(s), " ") }

	anyText := func(c Candidate, pred func(string) bool) bool {
		for _, s := range c.texts() {
			if pred(s) {
				return true
			}
		}
		return false
	}

	return matcher.NewCascade(
		matcher.Strategy[Candidate]{Name: StrategyStyleColor, Match: func(c Candidate) bool {
			return styleColor != nil && t.styleID != "" && anyText(c, styleColor.Match)
		}},
		matcher.Strategy[Candidate]{Name: StrategyCode, Match: func(c Candidate) bool {
			return code != nil && anyText(c, code.Match)
		}},
		matcher.Strategy[Candidate]{Name: StrategyNameContains, Match: func(c Candidate) bool {
			if len(name) < 3 {
				return false
			}
			return anyText(c, func(s string) bool {
				text := joined(s)
				if text == "" {
					return false
				}
				return strings.Contains(text, name) || (len(text) >= 3 && strings.Contains(name, text))
			})
		}},
		matcher.Strategy[Candidate]{Name: StrategyNameWord, Match: func(c Candidate) bool {
			words := c.words()
			for _, w := range nameWords {
				if len(w) >= 3 && words[w] {
					return true
				}
			}
			return false
		}},
		matcher.Strategy[Candidate]{Name: StrategySynonym, Match: func(c Candidate) bool {
			words := c.words()
			for _, w := range nameWords {
				for _, syn := range synonyms[w] {
					if words[syn] {
						return true
					}
				}
			}
			return false
		}},
		matcher.Strategy[Candidate]{Name: StrategyExactLabel, Match: func(c Candidate) bool {
			return t.code == "" && name != "" && anyText(c, func(s string) bool { return joined(s) == name })
		}},
		matcher.Strategy[Candidate]{Name: StrategySingleWord, Match: func(c Candidate) bool {
			if len(nameWords) != 1 {
				return false
			}
			return c.words()[nameWords[0]]
		}},
	)
}

// StrategyNames lists the cascade in evaluation order.
func StrategyNames() []string {
	return newTarget("", "").cascade().Names()
}
