package reconcile

import (
	"golang.org/x/sync/errgroup"
)

// Reconcile indexes both documents and assembles the report.
// A document without a recognisable record list counts as an empty source.
func Reconcile(a, b Document, opts Options) *Report {
	return ReconcileIndices(BuildIndex(a), BuildIndex(b), opts)
}

// ReconcileIndices assembles the report from two prebuilt indices.
// The indices are only read.
func ReconcileIndices(a, b Index, opts Options) *Report {
	onlyA, onlyB, common := partition(a, b)

	order := opts.Order
	if order == "" {
		order = OrderLexical
	}
	order.Sort(onlyA)
	order.Sort(onlyB)
	order.Sort(common)

	slots := diffCommon(common, a, b, opts)

	changes := make([]Change, 0, len(common))
	for i, id := range common {
		if len(slots[i]) > 0 {
			changes = append(changes, Change{ID: id, Diffs: slots[i]})
		}
	}

	return &Report{
		GeneratedAt: opts.timestamp(),
		Counts: Counts{
			AItems:        len(a),
			BItems:        len(b),
			OnlyA:         len(onlyA),
			OnlyB:         len(onlyB),
			ChangedCommon: len(changes),
			CommonTotal:   len(common),
		},
		OnlyA:   onlyA,
		OnlyB:   onlyB,
		Changes: changes,
	}
}

// partition splits the identifiers of both indices into only-A, only-B and common.
func partition(a, b Index) (onlyA, onlyB, common []string) {
	onlyA = []string{}
	onlyB = []string{}
	common = []string{}

	for id := range a {
		if _, ok := b[id]; ok {
			common = append(common, id)
		} else {
			onlyA = append(onlyA, id)
		}
	}
	for id := range b {
		if _, ok := a[id]; !ok {
			onlyB = append(onlyB, id)
		}
	}
	return onlyA, onlyB, common
}

// diffCommon diffs every common identifier. Each identifier owns one slot of
// the result, so parallel workers never share state.
func diffCommon(common []string, a, b Index, opts Options) [][]FieldDiff {
	slots := make([][]FieldDiff, len(common))

	if opts.Workers < 2 {
		for i, id := range common {
			slots[i] = DiffFields(a[id], b[id], opts.Fields, opts.Labels)
		}
		return slots
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, id := range common {
		g.Go(func() error {
			slots[i] = DiffFields(a[id], b[id], opts.Fields, opts.Labels)
			return nil
		})
	}
	// Diff tasks never return an error; Wait only joins them.
	_ = g.Wait()

	return slots
}
