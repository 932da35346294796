// Package setops provides the two order-preserving list operations used to
// reconcile show and hide requests.
package setops

// RelativeComplement returns the elements of a that do not occur in b,
// preserving the order of a. Membership is a linear scan over b, so the
// cost is O(len(a)·len(b)); group lists are short enough for that to be
// the cheaper option.
func RelativeComplement[T comparable](a, b []T) []T {
	out := make([]T, 0, len(a))
	for _, v := range a {
		if !contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}

// Dedupe returns a with duplicates removed. The first occurrence of each
// element is kept and relative order is preserved.
func Dedupe[T comparable](a []T) []T {
	out := make([]T, 0, len(a))
	for _, v := range a {
		if !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func contains[T comparable](slice []T, val T) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
