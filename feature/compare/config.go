package compare

import (
	"time"

	"criteria-diff/core/reconcile"
	"criteria-diff/core/utils"
)

// Config holds the defaults of a comparison.
type Config struct {
	// SourceA is the reference of the first document (file path, s3://bucket/key or storage:key).
	SourceA string `mapstructure:"source_a" default:"data/wcag_tenon.json"`
	// SourceB is the reference of the second document.
	SourceB string `mapstructure:"source_b" default:"data/wcag_w3c.json"`
	// LabelA names source A in line diffs.
	LabelA string `mapstructure:"label_a" default:"tenon"`
	// LabelB names source B in line diffs.
	LabelB string `mapstructure:"label_b" default:"w3c"`
	// Fields is a comma separated allowlist of compared fields. Empty compares every field.
	Fields string `mapstructure:"fields" default:""`
	// Order is the identifier order of the report lists (lexical or numeric).
	Order string `mapstructure:"order" default:"lexical"`
	// Workers bounds parallel diffing. Values below 2 diff sequentially.
	Workers int `mapstructure:"workers" default:"1"`
	// CacheTTLSeconds keeps indexed storage sources in memory. Zero disables the cache.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"0"`
	// Output is the file the CLI writes the report to. Empty writes to stdout.
	Output string `mapstructure:"output" default:"docs/compare.json"`
	// ReportObject is the object key published reports are written to.
	ReportObject string `mapstructure:"report_object" default:"reports/compare.json"`
	// Prefix limits the source listing to keys under it.
	Prefix string `mapstructure:"prefix" default:""`
}

// Labels returns the configured diff labels.
func (c Config) Labels() reconcile.Labels {
	return reconcile.Labels{A: c.LabelA, B: c.LabelB}
}

// CacheTTL returns the index cache TTL.
func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Options converts the configuration into reconcile options.
// An unknown order name is reported as an error.
func (c Config) Options() (reconcile.Options, error) {
	order, err := reconcile.ParseOrder(c.Order)
	if err != nil {
		return reconcile.Options{}, err
	}
	return reconcile.Options{
		Fields:  utils.SplitList(c.Fields),
		Order:   order,
		Labels:  c.Labels(),
		Workers: c.Workers,
	}, nil
}
