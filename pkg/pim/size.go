package pim

import (
	"sort"
	"strconv"
	"strings"
)

var canonicalSizes = []string{"XXXS", "XXS", "XS", "S", "M", "L", "XL", "XXL", "3XL", "4XL", "5XL", "6XL"}

var sizeAliases = map[string]string{
	"2XS":     "XXS",
	"3XS":     "XXXS",
	"SMALL":   "S",
	"MEDIUM":  "M",
	"LARGE":   "L",
	"XLARGE":  "XL",
	"X-LARGE": "XL",
	"2XL":     "XXL",
	"XXXL":    "3XL",
	"XXXXL":   "4XL",
}

var sizeRank = func() map[string]int {
	m := make(map[string]int, len(canonicalSizes))
	for i, s := range canonicalSizes {
		m[s] = i
	}
	return m
}()

// CanonicalSize normalizes a size label to its canonical letter form,
// returning "" for labels outside the letter scale.
func CanonicalSize(label string) string {
	s := strings.ToUpper(strings.Join(strings.Fields(label), ""))
	if alias, ok := sizeAliases[s]; ok {
		s = alias
	}
	if _, ok := sizeRank[s]; ok {
		return s
	}
	return ""
}

// SortSizes orders sizes as XXS..6XL first, numeric sizes next by value,
// then everything else in the given order. The input is not modified.
func SortSizes(sizes []Option) []Option {
	type ranked struct {
		opt   Option
		class int
		value float64
	}
	rs := make([]ranked, len(sizes))
	for i, o := range sizes {
		r := ranked{opt: o, class: 2, value: float64(i)}
		if c := CanonicalSize(o.Name); c != "" {
			r.class, r.value = 0, float64(sizeRank[c])
		} else if n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(o.Name), ",", "."), 64); err == nil {
			r.class, r.value = 1, n
		}
		rs[i] = r
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].class != rs[j].class {
			return rs[i].class < rs[j].class
		}
		return rs[i].value < rs[j].value
	})
	out := make([]Option, len(rs))
	for i, r := range rs {
		out[i] = r.opt
	}
	return out
}
