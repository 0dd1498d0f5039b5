// Package role defines the canonical role vocabulary and the normalization
// and precedence rules every authorization decision is made against.
package role

import "strings"

// Prefix is the canonical marker every role string carries after
// normalization. Raw role lists arrive from legacy callers both with and
// without it; comparisons are only valid on the prefixed form.
const Prefix = "ROLE_"

// Canonical roles recognized by the system.
const (
	Admin       = Prefix + "ADMIN"
	Coordinator = Prefix + "COORDINATOR"
	Tutor       = Prefix + "TUTOR"
	Jury        = Prefix + "JURY"
)

// Landing routes per role.
const (
	AdminHome       = "/admin"
	CoordinatorHome = "/coordinator"
	TutorHome       = "/tutor"
	JuryHome        = "/jury"
)

// precedence is the fixed order the home dispatcher inspects roles in.
// A user holding several roles always lands on the first match.
var precedence = []struct {
	role string
	home string
}{
	{Admin, AdminHome},
	{Coordinator, CoordinatorHome},
	{Tutor, TutorHome},
	{Jury, JuryHome},
}

// NormalizeOne maps a single raw role string to canonical form: trimmed,
// upper-cased, and prefixed unless already prefixed. Normalization is
// idempotent: a canonical role passes through unchanged.
func NormalizeOne(raw string) string {
	r := strings.ToUpper(strings.TrimSpace(raw))
	if r == "" {
		return ""
	}
	if strings.HasPrefix(r, Prefix) {
		return r
	}
	return Prefix + r
}

// Normalize maps a raw role list to canonical form, dropping empty entries
// and duplicates while preserving first-seen order.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		n := NormalizeOne(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// IsKnown reports whether a canonical role belongs to the configured
// vocabulary. Unrecognized shapes are flagged by callers rather than
// silently accepted.
func IsKnown(canonical string) bool {
	switch canonical {
	case Admin, Coordinator, Tutor, Jury:
		return true
	}
	return false
}

// All returns the configured role vocabulary.
func All() []string {
	return []string{Admin, Coordinator, Tutor, Jury}
}

// Intersects reports whether any of the user's normalized roles appears in
// the allowed set. Comparison is exact and case-sensitive; both sides must
// already be canonical.
func Intersects(normalized []string, allowed []string) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	for _, r := range normalized {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

// HomeFor returns the landing route for the highest-precedence role in the
// normalized role list. The second return is false when no configured role
// matches, which callers treat as an invalid session.
func HomeFor(normalized []string) (string, bool) {
	set := make(map[string]struct{}, len(normalized))
	for _, r := range normalized {
		set[r] = struct{}{}
	}
	for _, p := range precedence {
		if _, ok := set[p.role]; ok {
			return p.home, true
		}
	}
	return "", false
}
