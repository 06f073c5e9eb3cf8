package reconcile

import "time"

// Document is the parsed form of one input source.
// It is either a list of records or a mapping that contains one.
type Document = any

// Record is one catalogue entry: an arbitrary mapping from field name to value.
type Record = map[string]any

// Index maps an identifier to the record that carries it within one source.
type Index map[string]Record

// IDs returns the identifiers of the index in no particular order.
func (idx Index) IDs() []string {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	return ids
}

// FieldDiff describes a single field whose normalized values differ
// between the two sources.
type FieldDiff struct {
	// Field is the field name.
	Field string `json:"field"`

	// AValue is the raw value from source A (nil when missing).
	AValue any `json:"a_value"`

	// BValue is the raw value from source B (nil when missing).
	BValue any `json:"b_value"`

	// DiffText is a unified line diff for long text fields, nil otherwise.
	DiffText *string `json:"diff_text"`
}

// Change groups the field differences of one common identifier.
type Change struct {
	// ID is the shared identifier.
	ID string `json:"id"`

	// Diffs is the list of differing fields, ordered by field name.
	Diffs []FieldDiff `json:"diffs"`
}

// Counts holds the aggregate numbers of a report.
type Counts struct {
	// AItems is the number of records with an identifier in source A.
	AItems int `json:"a_items"`

	// BItems is the number of records with an identifier in source B.
	BItems int `json:"b_items"`

	// OnlyA counts identifiers present only in source A.
	OnlyA int `json:"only_a"`

	// OnlyB counts identifiers present only in source B.
	OnlyB int `json:"only_b"`

	// ChangedCommon counts common identifiers with at least one field difference.
	ChangedCommon int `json:"changed_common"`

	// CommonTotal counts identifiers present in both sources.
	CommonTotal int `json:"common_total"`
}

// Report is the outcome of one reconciliation.
type Report struct {
	// GeneratedAt is the UTC time the report was assembled.
	GeneratedAt string `json:"generated_at"`

	// Counts provides aggregate statistics.
	Counts Counts `json:"counts"`

	// OnlyA lists identifiers found only in source A.
	OnlyA []string `json:"only_a"`

	// OnlyB lists identifiers found only in source B.
	OnlyB []string `json:"only_b"`

	// Changes lists common identifiers whose records differ.
	Changes []Change `json:"changes"`
}

// TimestampLayout is the layout of Report.GeneratedAt.
const TimestampLayout = "2006-01-02 15:04:05Z"

// Labels names the two sources in diff headers.
type Labels struct {
	A string
	B string
}

// DefaultLabels are used when Options.Labels is left empty.
var DefaultLabels = Labels{A: "a", B: "b"}

func (l Labels) orDefault() Labels {
	if l.A == "" {
		l.A = DefaultLabels.A
	}
	if l.B == "" {
		l.B = DefaultLabels.B
	}
	return l
}

// Options controls a reconciliation run.
type Options struct {
	// Fields restricts the compared fields. Empty means every field.
	Fields []string

	// Order selects how identifier lists are sorted. Defaults to OrderLexical.
	Order Order

	// Labels names the sources in unified diff headers.
	Labels Labels

	// Workers bounds parallel field diffing across common identifiers.
	// Values below 2 diff sequentially.
	Workers int

	// Now returns the report timestamp. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) timestamp() string {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return now().UTC().Format(TimestampLayout)
}
