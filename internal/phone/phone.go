// Package phone normalizes phone numbers the way the messaging network reports them.
// Senders on the network report numbers without a leading "+", while CRM records
// may carry one. Both forms refer to the same subscriber.
package phone

import "strings"

// Normalize trims whitespace and strips a single leading "+".
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	return strings.TrimPrefix(p, "+")
}

// Variants returns the bare and "+"-prefixed forms of p.
// Returns nil for an empty number.
func Variants(p string) []string {
	n := Normalize(p)
	if n == "" {
		return nil
	}
	return []string{n, "+" + n}
}

// Equal reports whether a and b identify the same number, ignoring a leading "+".
func Equal(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	return na != "" && na == nb
}
