// Package diagnostics collects build problems as an order-independent set.
// Reconciliation never aborts at the point of detection: problems accumulate
// here and a single end-of-build policy check decides the process outcome, so
// a mostly-successful build is always fully reported.
package diagnostics

import (
	"fmt"
	"sort"
	"sync"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityInfo is informational output.
	SeverityInfo Severity = iota
	// SeverityWarn marks a problem the build survives unless failOnWarn is set.
	SeverityWarn
	// SeverityError marks a build-breaking problem.
	SeverityError
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is one reported problem with manifest field attribution.
type Diagnostic struct {
	Severity Severity
	// Field is the manifest field path or file the problem concerns.
	Field   string
	Message string
}

// String implements fmt.Stringer.
func (d Diagnostic) String() string {
	if d.Field == "" {
		return d.Message
	}

	return d.Field + ": " + d.Message
}

// Set is a thread-safe, deduplicated diagnostic collection. Both compilation
// passes and the validators append concurrently; outcomes must not depend on
// arrival order.
type Set struct {
	mu    sync.Mutex
	seen  map[Diagnostic]struct{}
	items []Diagnostic
}

// NewSet creates an empty diagnostic set.
func NewSet() *Set {
	return &Set{seen: make(map[Diagnostic]struct{})}
}

// Add records a diagnostic, ignoring exact duplicates.
func (s *Set) Add(severity Severity, field, format string, args ...any) {
	d := Diagnostic{Severity: severity, Field: field, Message: fmt.Sprintf(format, args...)}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[d]; dup {
		return
	}

	s.seen[d] = struct{}{}
	s.items = append(s.items, d)
}

// Infof records an informational diagnostic.
func (s *Set) Infof(field, format string, args ...any) {
	s.Add(SeverityInfo, field, format, args...)
}

// Warnf records a warning.
func (s *Set) Warnf(field, format string, args ...any) {
	s.Add(SeverityWarn, field, format, args...)
}

// Errorf records an error.
func (s *Set) Errorf(field, format string, args ...any) {
	s.Add(SeverityError, field, format, args...)
}

// Items returns the diagnostics sorted by severity (errors first), then by
// field and message, so reporting is deterministic regardless of the order
// the passes finished in.
func (s *Set) Items() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Diagnostic, len(s.items))
	copy(out, s.items)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}

		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}

		return out[i].Message < out[j].Message
	})

	return out
}

// Count returns the number of diagnostics at the given severity.
func (s *Set) Count(severity Severity) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for _, d := range s.items {
		if d.Severity == severity {
			n++
		}
	}

	return n
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (s *Set) HasErrors() bool {
	return s.Count(SeverityError) > 0
}

// HasWarnings reports whether any warning was recorded.
func (s *Set) HasWarnings() bool {
	return s.Count(SeverityWarn) > 0
}

// SeenSet memoizes string ids so repeated findings stay silent. It is scoped
// to one build invocation and passed through the build context; constructing
// a fresh one per test keeps runs independent.
type SeenSet struct {
	mu   sync.Mutex
	data map[string]struct{}
}

// NewSeenSet creates an empty memoization set.
func NewSeenSet() *SeenSet {
	return &SeenSet{data: make(map[string]struct{})}
}

// Add records id and reports whether it was new.
func (s *SeenSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; exists {
		return false
	}

	s.data[id] = struct{}{}

	return true
}

// Len returns the number of recorded ids.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.data)
}
