// Package content implements RuStream's filesystem indexer: natural sort,
// extension classification, directory listing, and sibling iteration.
package content

import (
	"regexp"
	"strconv"
)

var naturalSortRunRe = regexp.MustCompile(`(\D+|\d+)`)

// naturalKey splits s into alternating digit/non-digit runs. Digit runs
// become ints, everything else stays a string, so "file2" sorts before
// "file10" under naturalLess.
func naturalKey(s string) []any {
	runs := naturalSortRunRe.FindAllString(s, -1)
	key := make([]any, len(runs))
	for i, run := range runs {
		if n, err := strconv.Atoi(run); err == nil {
			key[i] = n
		} else {
			key[i] = run
		}
	}
	return key
}

// naturalLess compares two natural keys element by element. An int always
// sorts before a string at the same position; two ints compare
// numerically, two strings lexicographically; a shorter key that is a
// prefix of a longer one sorts first.
func naturalLess(a, b string) bool {
	ak, bk := naturalKey(a), naturalKey(b)
	for i := 0; i < len(ak) && i < len(bk); i++ {
		av, bv := ak[i], bk[i]
		ai, aIsInt := av.(int)
		bi, bIsInt := bv.(int)

		switch {
		case aIsInt && bIsInt:
			if ai != bi {
				return ai < bi
			}
		case aIsInt && !bIsInt:
			return true
		case !aIsInt && bIsInt:
			return false
		default:
			as, bs := av.(string), bv.(string)
			if as != bs {
				return as < bs
			}
		}
	}
	return len(ak) < len(bk)
}
