package reconcile

import "sort"

// DefaultWrapperKeys are the conventional names under which a mapping
// document wraps its record list, tried in order.
var DefaultWrapperKeys = []string{
	"successCriteria",
	"criteria",
	"criterios",
	"items",
	"wcag",
	"guidelines",
	"Guidelines",
}

// ListStrategy tries to find the record list of a document.
type ListStrategy func(doc Document) ([]any, bool)

// AsList accepts a document that already is a list.
func AsList(doc Document) ([]any, bool) {
	list, ok := doc.([]any)
	return list, ok
}

// WrapperKeys returns a strategy that looks up keys in order and accepts the
// first value that is a list, even an empty one.
func WrapperKeys(keys ...string) ListStrategy {
	return func(doc Document) ([]any, bool) {
		m, ok := doc.(map[string]any)
		if !ok {
			return nil, false
		}
		for _, k := range keys {
			if list, ok := m[k].([]any); ok {
				return list, true
			}
		}
		return nil, false
	}
}

// NestedRecordList scans the values of a mapping document, keys in sorted
// order, and accepts the first non-empty list made only of mappings.
func NestedRecordList(doc Document) ([]any, bool) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, false
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		list, ok := m[k].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		if allRecords(list) {
			return list, true
		}
	}
	return nil, false
}

func allRecords(list []any) bool {
	for _, el := range list {
		if _, ok := el.(map[string]any); !ok {
			return false
		}
	}
	return true
}

// Locator finds the record list of a raw document.
type Locator struct {
	strategies []ListStrategy
}

// NewLocator creates a Locator. Without strategies it uses the default chain:
// AsList, WrapperKeys(DefaultWrapperKeys...), NestedRecordList.
func NewLocator(strategies ...ListStrategy) *Locator {
	if len(strategies) == 0 {
		strategies = []ListStrategy{
			AsList,
			WrapperKeys(DefaultWrapperKeys...),
			NestedRecordList,
		}
	}
	return &Locator{strategies: strategies}
}

// Locate returns the candidate records of doc, or false if no strategy
// recognises the document. Callers treat false as an empty source.
func (l *Locator) Locate(doc Document) ([]any, bool) {
	for _, strategy := range l.strategies {
		if list, ok := strategy(doc); ok {
			return list, true
		}
	}
	return nil, false
}

var defaultLocator = NewLocator()

// LocateRecords finds the record list of doc with the default Locator.
func LocateRecords(doc Document) ([]any, bool) {
	return defaultLocator.Locate(doc)
}
