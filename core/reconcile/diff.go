package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gowebpki/jcs"
	"github.com/pmezard/go-difflib/difflib"
)

// DiffThreshold is the combined rune length two differing strings must
// exceed before a unified line diff is attached.
const DiffThreshold = 80

// diffContext is the number of context lines around each hunk.
const diffContext = 3

// Normalize returns the comparison form of a field value.
//
// Strings have whitespace runs collapsed to a single space and are trimmed.
// nil becomes the empty string, so a missing field equals a null one.
// Any other value is rendered as compact JSON with sorted object keys.
// Integers keep their exact digits; other numbers use the RFC 8785 (ES6)
// number form, so 1.0 and 1e0 both render as 1.
func Normalize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.Join(strings.Fields(t), " ")
	default:
		return canonical(t)
	}
}

func canonical(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(canonicalNumbers(v)); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(buf.String())
}

// canonicalNumbers returns a copy of v with every number replaced by its
// canonical json.Number. Maps and slices are copied, never modified.
func canonicalNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = canonicalNumbers(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = canonicalNumbers(val)
		}
		return out
	case json.Number:
		return json.Number(canonicalNumber(t))
	case float64:
		return floatNumber(t, strconv.FormatFloat(t, 'g', -1, 64))
	case float32:
		return floatNumber(float64(t), strconv.FormatFloat(float64(t), 'g', -1, 32))
	case int:
		return json.Number(strconv.Itoa(t))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	default:
		return v
	}
}

// canonicalNumber keeps integer literals digit for digit, since a float64
// round trip would merge integers above 2^53. Other literals go through the
// RFC 8785 number serialization.
func canonicalNumber(n json.Number) string {
	lit := string(n)
	if !strings.ContainsAny(lit, ".eE") {
		if lit == "-0" {
			return "0"
		}
		return lit
	}
	f, err := n.Float64()
	if err != nil {
		return lit
	}
	return string(floatNumber(f, lit))
}

func floatNumber(f float64, fallback string) json.Number {
	out, err := jcs.NumberToJSON(f)
	if err != nil {
		return json.Number(fallback)
	}
	return json.Number(out)
}

// DiffFields compares two matched records and returns one FieldDiff per
// field whose normalized values differ, ordered by field name.
// A non-empty allowlist restricts the compared fields.
func DiffFields(a, b Record, allowlist []string, labels Labels) []FieldDiff {
	labels = labels.orDefault()
	fields := fieldSet(a, b, allowlist)

	var diffs []FieldDiff
	for _, field := range fields {
		va := a[field]
		vb := b[field]

		if Normalize(va) == Normalize(vb) {
			continue
		}

		fd := FieldDiff{Field: field, AValue: va, BValue: vb}
		sa, aIsString := va.(string)
		sb, bIsString := vb.(string)
		if aIsString && bIsString && utf8.RuneCountInString(sa)+utf8.RuneCountInString(sb) > DiffThreshold {
			if text, ok := UnifiedDiff(sa, sb, labels); ok {
				fd.DiffText = &text
			}
		}
		diffs = append(diffs, fd)
	}

	return diffs
}

func fieldSet(a, b Record, allowlist []string) []string {
	union := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		union[k] = struct{}{}
	}
	for k := range b {
		union[k] = struct{}{}
	}

	if len(allowlist) > 0 {
		allowed := make(map[string]struct{}, len(allowlist))
		for _, f := range allowlist {
			allowed[f] = struct{}{}
		}
		for k := range union {
			if _, ok := allowed[k]; !ok {
				delete(union, k)
			}
		}
	}

	fields := make([]string, 0, len(union))
	for k := range union {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// UnifiedDiff renders a line diff of from (source A) against to (source B)
// with labels as file names. It returns false if the diff cannot be built.
func UnifiedDiff(from, to string, labels Labels) (string, bool) {
	labels = labels.orDefault()
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(from),
		B:        splitLines(to),
		FromFile: labels.A,
		ToFile:   labels.B,
		Context:  diffContext,
	})
	if err != nil {
		return "", false
	}
	return strings.TrimSuffix(text, "\n"), true
}

// splitLines splits s into newline-terminated lines. A trailing newline does
// not produce an extra empty line.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] += "\n"
	}
	return lines
}
