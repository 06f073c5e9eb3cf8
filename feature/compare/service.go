package compare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"criteria-diff/core/reconcile"
	"criteria-diff/core/storage"
	"criteria-diff/feature/compare/source"
	"criteria-diff/feature/compare/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidOptions is returned when request options cannot be applied.
	ErrInvalidOptions = errors.New("invalid comparison options")
	// ErrNoStore is returned by run queries when no database is configured.
	ErrNoStore = errors.New("run history is not configured")
	// ErrNoStorage is returned by storage operations when no client is configured.
	ErrNoStorage = errors.New("object storage is not configured")
)

// inlineSource names inline documents in persisted runs.
const inlineSource = "inline"

// Params tune a single comparison. Zero values fall back to the configuration.
type Params struct {
	Fields []string
	Order  string
	LabelA string
	LabelB string
}

// Request describes a comparison of two referenced documents.
type Request struct {
	Params
	A source.Ref
	B source.Ref
	// Publish writes the report to object storage.
	Publish bool
	// ReportObject overrides the configured report object key.
	ReportObject string
}

// Service runs comparisons and keeps their history.
type Service struct {
	client  storage.Client
	bucket  string
	logger  *zap.Logger
	runs    *store.Store
	cache   *reconcile.Cache
	loader  *source.Loader
	indexer *reconcile.Indexer
	cfg     Config
}

// NewService creates a new compare service. client and runs may be nil.
func NewService(client storage.Client, bucket string, logger *zap.Logger, runs *store.Store, cfg Config) *Service {
	return &Service{
		client:  client,
		bucket:  bucket,
		logger:  logger,
		runs:    runs,
		cache:   reconcile.NewCache(cfg.CacheTTL()),
		loader:  source.NewLoader(client, bucket),
		indexer: reconcile.NewIndexer(nil, nil),
		cfg:     cfg,
	}
}

// Config returns the service defaults.
func (s *Service) Config() Config {
	return s.cfg
}

// Options merges p over the configured defaults.
func (s *Service) Options(p Params) (reconcile.Options, error) {
	cfg := s.cfg
	if p.Order != "" {
		cfg.Order = p.Order
	}
	if p.LabelA != "" {
		cfg.LabelA = p.LabelA
	}
	if p.LabelB != "" {
		cfg.LabelB = p.LabelB
	}

	opts, err := cfg.Options()
	if err != nil {
		return reconcile.Options{}, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if len(p.Fields) > 0 {
		opts.Fields = p.Fields
	}
	return opts, nil
}

// Compare loads both sources concurrently, reconciles them and records the run.
// A failing publish still returns the report together with the error.
func (s *Service) Compare(ctx context.Context, req Request) (*reconcile.Report, error) {
	opts, err := s.Options(req.Params)
	if err != nil {
		return nil, err
	}

	refA := s.loader.Resolve(req.A)
	refB := s.loader.Resolve(req.B)

	var a, b *reconcile.CachedIndex
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = s.index(gctx, refA)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = s.index(gctx, refB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logIndex("a", refA.String(), a.Index, a.Stats)
	s.logIndex("b", refB.String(), b.Index, b.Stats)

	report := reconcile.ReconcileIndices(a.Index, b.Index, opts)
	s.logReport(refA.String(), refB.String(), report)
	s.record(ctx, report, refA.String(), refB.String(), opts.Labels)

	if req.Publish {
		if _, err := s.PublishReport(ctx, report, req.ReportObject); err != nil {
			return report, err
		}
	}
	return report, nil
}

// CompareDocuments reconciles two already decoded documents.
func (s *Service) CompareDocuments(ctx context.Context, a, b reconcile.Document, p Params) (*reconcile.Report, error) {
	opts, err := s.Options(p)
	if err != nil {
		return nil, err
	}

	indexA, statsA := s.indexer.Build(a)
	indexB, statsB := s.indexer.Build(b)
	s.logIndex("a", inlineSource, indexA, statsA)
	s.logIndex("b", inlineSource, indexB, statsB)

	report := reconcile.ReconcileIndices(indexA, indexB, opts)
	s.logReport(inlineSource, inlineSource, report)
	s.record(ctx, report, inlineSource, inlineSource, opts.Labels)
	return report, nil
}

// PublishReport writes the report JSON to object storage and returns the
// object key. An empty object uses the configured report object.
func (s *Service) PublishReport(ctx context.Context, report *reconcile.Report, object string) (string, error) {
	if s.client == nil {
		return "", ErrNoStorage
	}
	if object == "" {
		object = s.cfg.ReportObject
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := storage.WriteObject(ctx, s.client, s.bucket, object, "application/json", data); err != nil {
		return "", err
	}

	s.logger.Info("Published report", zap.String("bucket", s.bucket), zap.String("object", object))
	return object, nil
}

// ListSources returns the JSON and YAML objects under the configured prefix.
func (s *Service) ListSources(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, ErrNoStorage
	}
	return storage.ListKeys(ctx, s.client, s.bucket, s.cfg.Prefix, ".json", ".yaml", ".yml")
}

// ListRuns returns the most recent persisted runs.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if s.runs == nil {
		return nil, ErrNoStore
	}
	return s.runs.List(ctx, limit)
}

// GetRun returns a persisted run with its decoded report.
func (s *Service) GetRun(ctx context.Context, id string) (*store.Run, *reconcile.Report, error) {
	if s.runs == nil {
		return nil, nil, ErrNoStore
	}
	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	report, err := run.Decode()
	if err != nil {
		return nil, nil, err
	}
	return run, report, nil
}

// InvalidateSource drops the cached index of ref.
func (s *Service) InvalidateSource(ref source.Ref) {
	s.cache.Invalidate(s.loader.Resolve(ref).String())
}

func (s *Service) index(ctx context.Context, ref source.Ref) (*reconcile.CachedIndex, error) {
	return s.cache.GetOrBuild(ctx, ref.String(), func(ctx context.Context) (reconcile.Index, reconcile.IndexStats, error) {
		doc, err := s.loader.Load(ctx, ref)
		if err != nil {
			return nil, reconcile.IndexStats{}, err
		}
		index, stats := s.indexer.Build(doc)
		return index, stats, nil
	})
}

// record persists the run when a store is configured. Failures are logged only.
func (s *Service) record(ctx context.Context, report *reconcile.Report, sourceA, sourceB string, labels reconcile.Labels) {
	if s.runs == nil {
		return
	}
	run, err := store.NewRun(report, sourceA, sourceB, labels)
	if err == nil {
		err = s.runs.Save(ctx, run)
	}
	if err != nil {
		s.logger.Warn("Failed to record comparison run", zap.Error(err))
		return
	}
	s.logger.Debug("Recorded comparison run", zap.String("run_id", run.ID))
}

func (s *Service) logIndex(side, name string, index reconcile.Index, stats reconcile.IndexStats) {
	fields := []zap.Field{
		zap.String("side", side),
		zap.String("source", name),
		zap.Int("records", len(index)),
		zap.Int("elements", stats.Elements),
		zap.Int("not_records", stats.NotRecords),
		zap.Int("without_id", stats.WithoutID),
		zap.Int("overwritten", stats.Overwritten),
	}
	if !stats.Located {
		s.logger.Warn("No record list found, source counts as empty", fields...)
		return
	}
	s.logger.Debug("Indexed source", fields...)
}

func (s *Service) logReport(sourceA, sourceB string, report *reconcile.Report) {
	s.logger.Info("Comparison finished",
		zap.String("source_a", sourceA),
		zap.String("source_b", sourceB),
		zap.Int("a_items", report.Counts.AItems),
		zap.Int("b_items", report.Counts.BItems),
		zap.Int("only_a", report.Counts.OnlyA),
		zap.Int("only_b", report.Counts.OnlyB),
		zap.Int("changed_common", report.Counts.ChangedCommon),
		zap.Int("common_total", report.Counts.CommonTotal),
	)
}
