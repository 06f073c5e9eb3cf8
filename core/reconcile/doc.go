// Package reconcile matches the records of two independently produced
// catalogue documents and reports how they differ.
//
// The two sources describe the same logical catalogue (for example the WCAG
// success criteria) under different, inconsistent schemas. Nothing about the
// shape of either document is assumed beyond it being parsed JSON or YAML.
//
// # Pipeline
//
// A reconciliation is a single synchronous pass:
//
// 1. Locator: finds the list of records inside a raw document. The document
// may be a plain list, a mapping wrapping the list under a conventional key
// (e.g. "successCriteria", "items"), or a mapping holding some nested list of
// mappings.
//
// 2. Extractor: infers a dotted identifier such as "1.4.3" from a record by
// scanning a fixed list of candidate fields. Exact matches win over
// identifiers embedded in longer strings ("1.1.1 Non-text Content").
//
// 3. BuildIndex: maps identifier to record for one source. Records without an
// identifier are dropped; duplicate identifiers are last-write-wins.
//
// 4. DiffFields: compares two matched records field by field after
// normalization. Long text fields get a unified line diff.
//
// 5. Reconcile: partitions identifiers into only-A, only-B and common, and
// collects the field differences of every changed common identifier.
//
// Locator and Extractor are chains of small strategies. Supporting a new
// source schema means appending a strategy, not editing an existing one.
//
// # Usage Example
//
//	report := reconcile.Reconcile(docA, docB, reconcile.Options{
//	    Fields: []string{"title", "level"},
//	    Labels: reconcile.Labels{A: "tenon", B: "w3c"},
//	})
//	fmt.Println(report.Counts.ChangedCommon)
//
// # Caching
//
// Cache keeps built indices for a TTL so repeated comparisons of the same
// stored sources skip decoding and indexing. Concurrent builds of the same
// key are collapsed with singleflight.
package reconcile
