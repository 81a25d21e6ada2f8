// Package ordering implements the filename conventions that drive section
// ordering and hierarchy placement: a dot-separated numeric prefix followed
// by a dash and the section title (e.g. "2.1-FeatureOne.md").
package ordering

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// ParsePrefix splits a filename of the form <digits[.digits...]>-<rest> into
// its numeric prefix and the remainder. ok is false when the name does not
// follow the convention; rest is then the full input.
func ParsePrefix(name string) (prefix string, rest string, ok bool) {
	dash := strings.IndexByte(name, '-')
	if dash <= 0 {
		return "", name, false
	}

	candidate := name[:dash]
	for _, seg := range strings.Split(candidate, ".") {
		if seg == "" {
			return "", name, false
		}
		for _, r := range seg {
			if r < '0' || r > '9' {
				return "", name, false
			}
		}
	}

	return candidate, name[dash+1:], true
}

// Title derives a display title from the filename remainder after the
// ordering prefix. Dashes and underscores become spaces and words are
// title-cased, so "getting-started" renders as "Getting Started".
func Title(rest string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(rest)
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return titleCaser.String(s)
}

// Compare is a total order over section filenames:
//   - two prefixed names compare numerically segment by segment ("2" < "10"),
//     a shorter prefix sorting before its extensions ("2" < "2.1");
//   - a prefixed name always sorts before an unprefixed one;
//   - two unprefixed names compare case-insensitively by text.
//
// The same comparator orders both section files during collection and
// sibling ids in the assembled tree.
func Compare(a, b string) int {
	ap, arest, aok := ParsePrefix(a)
	bp, brest, bok := ParsePrefix(b)

	switch {
	case aok && !bok:
		return -1
	case !aok && bok:
		return 1
	case !aok && !bok:
		return compareFold(a, b)
	}

	if c := ComparePrefixes(ap, bp); c != 0 {
		return c
	}
	return compareFold(arest, brest)
}

// CompareIDs orders section ids: numeric dotted ids compare segment by
// segment and sort before title-derived ids, which compare
// case-insensitively. Sibling arrays in the assembled tree use this order.
func CompareIDs(a, b string) int {
	aNum := isNumericID(a)
	bNum := isNumericID(b)

	switch {
	case aNum && !bNum:
		return -1
	case !aNum && bNum:
		return 1
	case aNum && bNum:
		return ComparePrefixes(a, b)
	}
	return compareFold(a, b)
}

func isNumericID(id string) bool {
	if id == "" {
		return false
	}
	for _, seg := range strings.Split(id, ".") {
		if seg == "" {
			return false
		}
		for _, r := range seg {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// ComparePrefixes compares two dot-separated numeric prefixes segment by
// segment. Inputs are assumed to already satisfy the prefix grammar; a
// malformed segment falls back to textual comparison for that segment.
func ComparePrefixes(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr != nil || berr != nil {
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
			continue
		}
		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
