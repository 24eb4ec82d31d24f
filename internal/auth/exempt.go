package auth

import "strings"

// ExemptionSet decides which request paths bypass authentication entirely.
// It is built once at startup and read-only afterwards, so it is safe for
// concurrent use without locking.
type ExemptionSet struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewExemptionSet builds the set from exact paths and path prefixes.
func NewExemptionSet(exact []string, prefixes []string) *ExemptionSet {
	set := &ExemptionSet{
		exact:    make(map[string]struct{}, len(exact)),
		prefixes: append([]string(nil), prefixes...),
	}
	for _, p := range exact {
		set.exact[p] = struct{}{}
	}
	return set
}

// DefaultExemptionSet covers static assets, the auth endpoints themselves,
// health/info probes and the public hello path used for smoke tests.
func DefaultExemptionSet() *ExemptionSet {
	return NewExemptionSet(
		[]string{
			"/", "/index.html", "/favicon.ico", "/vite.svg",
			"/api/hello",
			"/actuator/health", "/actuator/info",
		},
		[]string{"/assets/", "/api/auth/", "/actuator/"},
	)
}

// Matches reports whether the path is exempt from authentication.
func (s *ExemptionSet) Matches(path string) bool {
	if _, ok := s.exact[path]; ok {
		return true
	}
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
