package reconcile

// IndexStats reports what happened while indexing one document.
type IndexStats struct {
	// Located is false when no record list could be found.
	Located bool

	// Elements is the number of list elements inspected.
	Elements int

	// NotRecords counts elements that were not mappings.
	NotRecords int

	// WithoutID counts records without an inferable identifier.
	WithoutID int

	// Overwritten counts records that replaced an earlier record with the same identifier.
	Overwritten int
}

// Indexer builds indices with a configurable Locator and Extractor.
type Indexer struct {
	Locator   *Locator
	Extractor *Extractor
}

// NewIndexer creates an Indexer. Nil arguments fall back to the defaults.
func NewIndexer(locator *Locator, extractor *Extractor) *Indexer {
	if locator == nil {
		locator = defaultLocator
	}
	if extractor == nil {
		extractor = defaultExtractor
	}
	return &Indexer{Locator: locator, Extractor: extractor}
}

// Build indexes doc by identifier and returns the index with its stats.
func (ix *Indexer) Build(doc Document) (Index, IndexStats) {
	index := make(Index)
	var stats IndexStats

	list, ok := ix.Locator.Locate(doc)
	if !ok {
		return index, stats
	}
	stats.Located = true
	stats.Elements = len(list)

	for _, el := range list {
		rec, ok := el.(map[string]any)
		if !ok {
			stats.NotRecords++
			continue
		}
		id, ok := ix.Extractor.Extract(rec)
		if !ok {
			stats.WithoutID++
			continue
		}
		if _, exists := index[id]; exists {
			stats.Overwritten++
		}
		index[id] = rec
	}

	return index, stats
}

var defaultIndexer = NewIndexer(nil, nil)

// BuildIndex indexes doc with the default Locator and Extractor.
func BuildIndex(doc Document) Index {
	index, _ := defaultIndexer.Build(doc)
	return index
}
