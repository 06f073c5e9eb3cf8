package reconcile

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"Nil", nil, ""},
		{"Plain string", "Non-text Content", "Non-text Content"},
		{"Whitespace collapsed", "  Non-text \n\t Content  ", "Non-text Content"},
		{"Bool", true, "true"},
		{"Float", 1.5, "1.5"},
		{"Json number", json.Number("3"), "3"},
		{"Large integer keeps digits", json.Number("9007199254740993"), "9007199254740993"},
		{"Negative zero", json.Number("-0"), "0"},
		{"Float literal forms", json.Number("1.50"), "1.5"},
		{"Exponent literal", json.Number("1e2"), "100"},
		{"Integral float", 2.0, "2"},
		{"Nested large integer", map[string]any{"n": []any{json.Number("12345678901234567890")}}, `{"n":[12345678901234567890]}`},
		{"Non-ASCII string in composite", []any{"Conteúdo não textual"}, `["Conteúdo não textual"]`},
		{"List", []any{"a", 1}, `["a",1]`},
		{"Map keys sorted", map[string]any{"b": 1, "a": []any{true}}, `{"a":[true],"b":1}`},
		{"No HTML escaping", map[string]any{"t": "<b>&</b>"}, `{"t":"<b>&</b>"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.value))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	values := []any{
		"  spaced   out\ntext ",
		map[string]any{"z": "last", "a": []any{1, "two", nil}},
		[]any{map[string]any{"k": "v"}},
		false,
	}
	for _, v := range values {
		once := Normalize(v)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalize_CompositeKeyOrder(t *testing.T) {
	var a, b any
	require.NoError(t, json.Unmarshal([]byte(`{"x":1,"y":{"p":"q","r":[1,2]}}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"y":{"r":[1,2],"p":"q"},"x":1}`), &b))
	assert.Equal(t, Normalize(a), Normalize(b))
}

func TestDiffFields(t *testing.T) {
	t.Run("Self diff is empty", func(t *testing.T) {
		rec := Record{
			"id":    "1.1.1",
			"title": "Non-text Content",
			"refs":  []any{map[string]any{"url": "https://example.org"}},
			"n":     nil,
		}
		assert.Empty(t, DiffFields(rec, rec, nil, Labels{}))
	})

	t.Run("Ordered by field name", func(t *testing.T) {
		a := Record{"level": "A", "title": "One", "extra": "x"}
		b := Record{"level": "AA", "title": "Two"}

		diffs := DiffFields(a, b, nil, Labels{})
		require.Len(t, diffs, 3)
		assert.Equal(t, "extra", diffs[0].Field)
		assert.Equal(t, "x", diffs[0].AValue)
		assert.Nil(t, diffs[0].BValue)
		assert.Equal(t, "level", diffs[1].Field)
		assert.Equal(t, "title", diffs[2].Field)
	})

	t.Run("Whitespace-only difference ignored", func(t *testing.T) {
		a := Record{"title": "Non-text   Content"}
		b := Record{"title": " Non-text Content\n"}
		assert.Empty(t, DiffFields(a, b, nil, Labels{}))
	})

	t.Run("Missing equals null and empty string", func(t *testing.T) {
		a := Record{"note": nil, "other": ""}
		b := Record{}
		assert.Empty(t, DiffFields(a, b, nil, Labels{}))
	})

	t.Run("Allowlist restricts fields", func(t *testing.T) {
		a := Record{"level": "A", "title": "One"}
		b := Record{"level": "AA", "title": "Two"}

		diffs := DiffFields(a, b, []string{"level", "absent"}, Labels{})
		require.Len(t, diffs, 1)
		assert.Equal(t, "level", diffs[0].Field)
	})

	t.Run("Integers above 2^53 stay distinct", func(t *testing.T) {
		a := Record{"ref": json.Number("9007199254740993"), "refs": []any{json.Number("9007199254740993")}}
		b := Record{"ref": json.Number("9007199254740992"), "refs": []any{json.Number("9007199254740992")}}

		diffs := DiffFields(a, b, nil, Labels{})
		require.Len(t, diffs, 2)
		assert.Equal(t, "ref", diffs[0].Field)
		assert.Equal(t, "refs", diffs[1].Field)
	})

	t.Run("Equivalent number literals are equal", func(t *testing.T) {
		a := Record{"version": json.Number("2.0"), "weight": json.Number("1e1")}
		b := Record{"version": json.Number("2"), "weight": json.Number("10")}
		assert.Empty(t, DiffFields(a, b, nil, Labels{}))
	})

	t.Run("Mixed kinds compare by normalized form", func(t *testing.T) {
		a := Record{"count": "3", "flag": "true", "tags": []any{"x"}}
		b := Record{"count": json.Number("3"), "flag": true, "tags": "x"}

		diffs := DiffFields(a, b, nil, Labels{})
		require.Len(t, diffs, 1)
		assert.Equal(t, "tags", diffs[0].Field)
		assert.Nil(t, diffs[0].DiffText)
	})

	t.Run("Mixed kinds inside composites differ", func(t *testing.T) {
		a := Record{"ids": []any{"3"}, "meta": map[string]any{"n": "3"}}
		b := Record{"ids": []any{json.Number("3")}, "meta": map[string]any{"n": json.Number("3")}}

		diffs := DiffFields(a, b, nil, Labels{})
		require.Len(t, diffs, 2)
		assert.Equal(t, "ids", diffs[0].Field)
		assert.Equal(t, "meta", diffs[1].Field)
	})
}

func TestDiffFields_Threshold(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		wantDiff bool
	}{
		{"Exactly 80", strings.Repeat("a", 40), strings.Repeat("b", 40), false},
		{"81", strings.Repeat("a", 41), strings.Repeat("b", 40), true},
		{"Runes not bytes", strings.Repeat("é", 40), strings.Repeat("è", 40), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diffs := DiffFields(Record{"text": tt.a}, Record{"text": tt.b}, nil, Labels{})
			require.Len(t, diffs, 1)
			if tt.wantDiff {
				require.NotNil(t, diffs[0].DiffText)
			} else {
				assert.Nil(t, diffs[0].DiffText)
			}
		})
	}
}

func TestDiffFields_NonStringNeverGetsDiffText(t *testing.T) {
	long := strings.Repeat("word ", 30)
	diffs := DiffFields(Record{"text": long}, Record{"text": []any{long}}, nil, Labels{})
	require.Len(t, diffs, 1)
	assert.Nil(t, diffs[0].DiffText)
}

func TestUnifiedDiff(t *testing.T) {
	from := "Success Criterion 1.1.1\nAll non-text content that is presented to the user\nhas a text alternative."
	to := "Success Criterion 1.1.1\nAll non-text content presented to the user\nhas a text alternative."

	diffs := DiffFields(Record{"text": from}, Record{"text": to}, nil, Labels{A: "tenon", B: "w3c"})
	require.Len(t, diffs, 1)
	require.NotNil(t, diffs[0].DiffText)

	want := strings.Join([]string{
		"--- tenon",
		"+++ w3c",
		"@@ -1,3 +1,3 @@",
		" Success Criterion 1.1.1",
		"-All non-text content that is presented to the user",
		"+All non-text content presented to the user",
		" has a text alternative.",
	}, "\n")
	assert.Equal(t, want, *diffs[0].DiffText)
	assert.Equal(t, from, diffs[0].AValue)
	assert.Equal(t, to, diffs[0].BValue)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a\n"}, splitLines("a\n"))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines("a\r\nb"))
	assert.Equal(t, []string{"a\n", "\n", "b\n"}, splitLines("a\n\nb\n"))
}
