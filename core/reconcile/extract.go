package reconcile

import (
	"regexp"
	"strings"
)

var (
	// IDPattern matches a dotted identifier such as "1.4.3" anywhere in a string.
	IDPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

	exactIDPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// DefaultIDFields lists the candidate identifier fields in preference order.
var DefaultIDFields = []string{
	"id",
	"scId",
	"successCriterion",
	"criterion",
	"numero",
	"number",
}

// IDStrategy inspects the candidate values of a record, in field preference
// order, and returns an identifier if it recognises one.
type IDStrategy func(values []any) (string, bool)

// ExactID returns the first candidate string that is exactly an identifier.
// Surrounding whitespace is ignored.
func ExactID(values []any) (string, bool) {
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if exactIDPattern.MatchString(s) {
			return s, true
		}
	}
	return "", false
}

// EmbeddedID returns the first identifier found inside any candidate string,
// e.g. "1.1.1" from "1.1.1 Non-text Content".
func EmbeddedID(values []any) (string, bool) {
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if m := IDPattern.FindString(s); m != "" {
			return m, true
		}
	}
	return "", false
}

// Extractor infers identifiers from records.
// Strategies run in order over the same candidate values; the first hit wins.
type Extractor struct {
	fields     []string
	strategies []IDStrategy
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithFields replaces the candidate field list.
func WithFields(fields ...string) ExtractorOption {
	return func(e *Extractor) {
		e.fields = fields
	}
}

// WithStrategies appends strategies after the default chain.
func WithStrategies(strategies ...IDStrategy) ExtractorOption {
	return func(e *Extractor) {
		e.strategies = append(e.strategies, strategies...)
	}
}

// NewExtractor creates an Extractor with the default fields and the
// exact-then-embedded strategy chain.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		fields:     DefaultIDFields,
		strategies: []IDStrategy{ExactID, EmbeddedID},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the identifier of rec, or false if none can be inferred.
func (e *Extractor) Extract(rec Record) (string, bool) {
	if rec == nil {
		return "", false
	}

	values := make([]any, 0, len(e.fields))
	for _, f := range e.fields {
		if v, ok := rec[f]; ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return "", false
	}

	for _, strategy := range e.strategies {
		if id, ok := strategy(values); ok {
			return id, true
		}
	}
	return "", false
}

var defaultExtractor = NewExtractor()

// ExtractID infers the identifier of rec with the default Extractor.
func ExtractID(rec Record) (string, bool) {
	return defaultExtractor.Extract(rec)
}
