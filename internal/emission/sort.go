package emission

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

// hbetaNormLabel is the absolute Hβ flux row, always listed last.
const hbetaNormLabel = "log hβ ergs/cm2/s"

var linePattern = regexp.MustCompile(`^([A-Za-z]+)\s*([IVXLCDM]+)?(.*)$`)

type lineKey struct {
	element string
	stage   int
	rest    string
}

// SortLines returns labels in spectroscopic order: element, then ionisation
// stage (roman numeral), then the remainder of the label. The absolute Hβ
// flux row sorts after everything else.
func SortLines(labels []string) []string {
	out := slices.Clone(labels)
	slices.SortStableFunc(out, func(a, b string) int {
		ka, kb := sortKey(a), sortKey(b)
		if c := cmp.Compare(ka.element, kb.element); c != 0 {
			return c
		}
		if c := cmp.Compare(ka.stage, kb.stage); c != 0 {
			return c
		}
		return cmp.Compare(ka.rest, kb.rest)
	})
	return out
}

func sortKey(label string) lineKey {
	trimmed := strings.Trim(label, "[]")
	if strings.EqualFold(trimmed, hbetaNormLabel) {
		return lineKey{element: "ZZZ", stage: 9999, rest: trimmed}
	}
	m := linePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return lineKey{element: trimmed}
	}
	return lineKey{element: strings.ToUpper(m[1]), stage: romanToInt(m[2]), rest: m[3]}
}

func romanToInt(r string) int {
	values := map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}
	total, prev := 0, 0
	for i := len(r) - 1; i >= 0; i-- {
		v := values[r[i]]
		if v < prev {
			total -= v
		} else {
			total += v
		}
		prev = v
	}
	return total
}
