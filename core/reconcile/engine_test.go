package reconcile

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) Document {
	t.Helper()
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestReconcile_LooseAndExactMatch(t *testing.T) {
	a := decode(t, `[{"id": "1.1.1 Non-text Content", "level": "A"}]`)
	b := decode(t, `{"criteria": [{"number": "1.1.1", "level": "AA"}]}`)

	report := Reconcile(a, b, Options{})

	assert.Empty(t, report.OnlyA)
	assert.Empty(t, report.OnlyB)
	require.Len(t, report.Changes, 1)

	change := report.Changes[0]
	assert.Equal(t, "1.1.1", change.ID)

	// "id" and "number" are both present on one side only, so they differ too.
	fields := make([]string, 0, len(change.Diffs))
	for _, d := range change.Diffs {
		fields = append(fields, d.Field)
	}
	assert.Equal(t, []string{"id", "level", "number"}, fields)

	level := change.Diffs[1]
	assert.Equal(t, "A", level.AValue)
	assert.Equal(t, "AA", level.BValue)
	assert.Nil(t, level.DiffText)

	assert.Equal(t, Counts{AItems: 1, BItems: 1, ChangedCommon: 1, CommonTotal: 1}, report.Counts)
}

func TestReconcile_LevelOnlyDifference(t *testing.T) {
	a := decode(t, `[{"id": "1.1.1 Non-text Content", "level": "A"}]`)
	b := decode(t, `[{"number": "1.1.1", "level": "AA"}]`)

	report := Reconcile(a, b, Options{Fields: []string{"level"}})

	require.Len(t, report.Changes, 1)
	require.Len(t, report.Changes[0].Diffs, 1)
	d := report.Changes[0].Diffs[0]
	assert.Equal(t, "level", d.Field)
	assert.Equal(t, "A", d.AValue)
	assert.Equal(t, "AA", d.BValue)
	assert.Nil(t, d.DiffText)
}

func TestReconcile_OnlyOnOneSide(t *testing.T) {
	a := decode(t, `[{"id": "2.2.2"}, {"id": "1.1.1", "level": "A"}]`)
	b := decode(t, `[{"id": "3.3.1"}, {"id": "1.1.1", "level": "A"}]`)

	report := Reconcile(a, b, Options{})

	assert.Equal(t, []string{"2.2.2"}, report.OnlyA)
	assert.Equal(t, []string{"3.3.1"}, report.OnlyB)
	assert.Empty(t, report.Changes)
	assert.NotNil(t, report.Changes)
	assert.Equal(t, 1, report.Counts.CommonTotal)
	assert.Equal(t, 0, report.Counts.ChangedCommon)
}

func TestReconcile_RecordWithoutIDExcluded(t *testing.T) {
	a := decode(t, `[{"title": "Untitled"}, {"id": "1.1.1"}]`)
	b := decode(t, `[{"title": "Untitled"}]`)

	report := Reconcile(a, b, Options{})

	assert.Equal(t, []string{"1.1.1"}, report.OnlyA)
	assert.Empty(t, report.OnlyB)
	assert.Empty(t, report.Changes)
	assert.Equal(t, 1, report.Counts.AItems)
	assert.Equal(t, 0, report.Counts.BItems)
}

func TestReconcile_UnlocatableSource(t *testing.T) {
	a := decode(t, `{"version": "2.2"}`)
	b := decode(t, `[{"id": "1.1.1"}, {"id": "1.2.1"}]`)

	report := Reconcile(a, b, Options{})

	assert.Empty(t, report.OnlyA)
	assert.Equal(t, []string{"1.1.1", "1.2.1"}, report.OnlyB)
	assert.Equal(t, 0, report.Counts.AItems)
}

func sampleIndices() (Index, Index) {
	a := Index{}
	b := Index{}
	for i := 1; i <= 12; i++ {
		id := fmt.Sprintf("1.%d.1", i)
		if i%3 != 0 {
			a[id] = Record{"id": id, "level": "A", "title": fmt.Sprintf("Criterion %d", i)}
		}
		if i%4 != 0 {
			level := "A"
			if i%2 == 0 {
				level = "AA"
			}
			b[id] = Record{"id": id, "level": level, "title": fmt.Sprintf("Criterion %d", i)}
		}
	}
	return a, b
}

func TestReconcile_Partition(t *testing.T) {
	a, b := sampleIndices()
	report := ReconcileIndices(a, b, Options{})

	common := make(map[string]struct{})
	for id := range a {
		if _, ok := b[id]; ok {
			common[id] = struct{}{}
		}
	}

	checkSide := func(index Index, only []string) {
		seen := make(map[string]int)
		for _, id := range only {
			seen[id]++
			_, inCommon := common[id]
			assert.False(t, inCommon, "only list overlaps common: %s", id)
		}
		for id := range common {
			seen[id]++
		}
		assert.Len(t, seen, len(index))
		for id := range index {
			assert.Equal(t, 1, seen[id], "identifier %s", id)
		}
	}
	checkSide(a, report.OnlyA)
	checkSide(b, report.OnlyB)

	assert.Equal(t, len(common), report.Counts.CommonTotal)
	assert.LessOrEqual(t, report.Counts.ChangedCommon, report.Counts.CommonTotal)
	assert.Equal(t, len(a), report.Counts.AItems)
	assert.Equal(t, len(b), report.Counts.BItems)
}

func TestReconcile_Deterministic(t *testing.T) {
	a, b := sampleIndices()

	first := ReconcileIndices(a, b, Options{})
	second := ReconcileIndices(a, b, Options{})
	parallel := ReconcileIndices(a, b, Options{Workers: 4})

	assert.Equal(t, first.OnlyA, second.OnlyA)
	assert.Equal(t, first.OnlyB, second.OnlyB)
	assert.Equal(t, first.Changes, second.Changes)
	assert.Equal(t, first.Changes, parallel.Changes)
	assert.Equal(t, first.Counts, parallel.Counts)
}

func TestReconcile_Ordering(t *testing.T) {
	a := Index{
		"1.10.1": Record{},
		"1.2.1":  Record{},
		"1.9.1":  Record{},
	}

	lexical := ReconcileIndices(a, Index{}, Options{})
	assert.Equal(t, []string{"1.10.1", "1.2.1", "1.9.1"}, lexical.OnlyA)

	numeric := ReconcileIndices(a, Index{}, Options{Order: OrderNumeric})
	assert.Equal(t, []string{"1.2.1", "1.9.1", "1.10.1"}, numeric.OnlyA)
}

func TestReconcile_Timestamp(t *testing.T) {
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("X", 3600))
	report := Reconcile(nil, nil, Options{Now: func() time.Time { return fixed }})

	assert.Equal(t, "2024-05-06 06:08:09Z", report.GeneratedAt)
	assert.NotNil(t, report.OnlyA)
	assert.NotNil(t, report.OnlyB)
}

func TestReport_JSONShape(t *testing.T) {
	a := decode(t, `[{"id": "1.1.1", "level": "A"}, {"id": "2.2.2"}]`)
	b := decode(t, `[{"id": "1.1.1", "level": "AA"}]`)

	data, err := json.Marshal(Reconcile(a, b, Options{}))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	for _, key := range []string{"generated_at", "counts", "only_a", "only_b", "changes"} {
		assert.Contains(t, out, key)
	}

	counts := out["counts"].(map[string]any)
	for _, key := range []string{"a_items", "b_items", "only_a", "only_b", "changed_common", "common_total"} {
		assert.Contains(t, counts, key)
	}

	changes := out["changes"].([]any)
	require.Len(t, changes, 1)
	diff := changes[0].(map[string]any)["diffs"].([]any)[0].(map[string]any)
	assert.Equal(t, "level", diff["field"])
	assert.Equal(t, "A", diff["a_value"])
	assert.Equal(t, "AA", diff["b_value"])
	assert.Contains(t, diff, "diff_text")
	assert.Nil(t, diff["diff_text"])
}
