package vin

import "github.com/AbdelzaherMuhammed/hypervel/internal/op"

// PrefixRun counts matching characters from the start of two strings up
// to the first mismatch. This is not an edit distance: comparison is
// position-by-position from index zero.
func PrefixRun(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func trimIDOf(c *op.VinCandidate) int {
	if c.TrimID == nil {
		return -1
	}
	return *c.TrimID
}

func basePriceOf(c *op.VinCandidate) float64 {
	if c.BasePrice == nil {
		return 0
	}
	return *c.BasePrice
}

// PickBest selects the winning candidate among historical rows. A
// candidate qualifies only when its prefix run with the query reaches the
// threshold. A strictly longer run always wins. On an equal run, a
// candidate only wins when it carries a different trim id than the
// current best AND a strictly higher base price: price never breaks a tie
// within the same trim. That asymmetry is deliberate; callers depend on
// it, do not "fix" it here.
func PickBest(query string, candidates []op.VinCandidate, threshold int) (op.VinCandidate, int, bool) {
	var best op.VinCandidate
	bestRun := 0
	found := false

	for i := range candidates {
		c := candidates[i]
		run := PrefixRun(query, c.Vin)
		if run < threshold {
			continue
		}
		if !found || run > bestRun {
			best = c
			bestRun = run
			found = true
			continue
		}
		if run == bestRun &&
			trimIDOf(&c) != trimIDOf(&best) &&
			basePriceOf(&c) > basePriceOf(&best) {
			best = c
			bestRun = run
		}
	}
	return best, bestRun, found
}
