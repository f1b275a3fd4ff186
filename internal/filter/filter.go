package filter

import "strings"

// SubjectFilter is a local screen applied before any oracle call: messages
// whose subject contains an exclude keyword are skipped without spending a
// classification request. Matching is case-insensitive. An empty keyword list
// passes everything.
type SubjectFilter struct {
	excludeKeywords []string
}

// NewSubjectFilter returns a filter that drops subjects containing any of the
// given keywords (case-insensitive substring).
func NewSubjectFilter(excludeKeywords []string) *SubjectFilter {
	return &SubjectFilter{excludeKeywords: excludeKeywords}
}

// Pass returns true if the subject should proceed to classification.
func (f *SubjectFilter) Pass(subject string) bool {
	if len(f.excludeKeywords) == 0 {
		return true
	}

	subjectLower := strings.ToLower(subject)
	for _, kw := range f.excludeKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(subjectLower, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}
