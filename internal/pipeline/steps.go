package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/aiflavor/internal/collector"
	"github.com/nao1215/aiflavor/internal/config"
	"github.com/nao1215/aiflavor/internal/detector"
	"github.com/nao1215/aiflavor/internal/i18n"
	"github.com/nao1215/aiflavor/internal/model"
)

// ErrNotAnalyzed is returned by PersistStep when no analyze step ran before it.
var ErrNotAnalyzed = errors.New("detection has not been analyzed")

// CollectorFactory returns the collector to use for a target.
// *collector.Factory satisfies it.
type CollectorFactory interface {
	For(target string) (collector.Collector, error)
}

// RecordStore persists detection records. *database.RecordDB satisfies it.
type RecordStore interface {
	SaveRecord(ctx context.Context, record *model.DetectionRecord) error
}

// CollectStep loads the target page and stores its snapshot on the detection.
// Collection failures are recorded on the detection and are not step errors,
// so the analyze step can still produce the zero-score result.
type CollectStep struct {
	factory CollectorFactory
	timeout time.Duration
	logger  *slog.Logger
}

// CollectStepOption configures a CollectStep.
type CollectStepOption func(*CollectStep)

// WithCollectTimeout bounds a single page collection.
func WithCollectTimeout(d time.Duration) CollectStepOption {
	return func(s *CollectStep) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCollectLogger sets a custom logger for the collect step.
func WithCollectLogger(logger *slog.Logger) CollectStepOption {
	return func(s *CollectStep) {
		s.logger = logger
	}
}

// NewCollectStep creates a collect step that picks collectors from factory.
func NewCollectStep(factory CollectorFactory, opts ...CollectStepOption) *CollectStep {
	s := &CollectStep{
		factory: factory,
		timeout: config.DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CollectStep) Name() string {
	return "collect"
}

// Do executes the collect step.
func (s *CollectStep) Do(ctx context.Context, detection *model.Detection) error {
	c, err := s.factory.For(detection.URL)
	if err != nil {
		s.fail(detection, err)
		return nil
	}
	detection.Metadata = c.Metadata()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	snapshot, err := collect(ctx, c, detection.URL)
	detection.Metadata.LoadTime = time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			detection.TimedOut = true
		}
		s.fail(detection, err)
		return nil
	}

	detection.Snapshot = snapshot
	s.logger.Info("page collected",
		"url", detection.URL,
		"collector", c.Name(),
		"elements", len(snapshot.Elements),
		"load_time", detection.Metadata.LoadTime,
	)
	return nil
}

func (s *CollectStep) fail(detection *model.Detection, err error) {
	detection.CollectError = err.Error()
	s.logger.Warn("collection failed",
		"url", detection.URL,
		"error", err,
	)
}

// collect runs the collector, turning panics and nil snapshots into errors.
func collect(ctx context.Context, c collector.Collector, url string) (snapshot *model.PageSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snapshot, err = nil, fmt.Errorf("%s collector panicked: %v", c.Name(), r)
		}
	}()
	snapshot, err = c.Collect(ctx, url)
	if err == nil && snapshot == nil {
		err = fmt.Errorf("%s collector returned no snapshot", c.Name())
	}
	return snapshot, err
}

// AnalyzeStep scores the collected snapshot. Without a snapshot it stores
// the zero-score failure result, so every detection that passes through
// it ends up with a result.
type AnalyzeStep struct {
	lang   i18n.Language
	now    func() time.Time
	logger *slog.Logger
}

// AnalyzeStepOption configures an AnalyzeStep.
type AnalyzeStepOption func(*AnalyzeStep)

// WithAnalyzeLanguage sets the language of feature names and details.
func WithAnalyzeLanguage(lang i18n.Language) AnalyzeStepOption {
	return func(s *AnalyzeStep) {
		s.lang = lang
	}
}

// WithAnalyzeClock overrides the clock used for result timestamps.
func WithAnalyzeClock(now func() time.Time) AnalyzeStepOption {
	return func(s *AnalyzeStep) {
		s.now = now
	}
}

// WithAnalyzeLogger sets a custom logger for the analyze step.
func WithAnalyzeLogger(logger *slog.Logger) AnalyzeStepOption {
	return func(s *AnalyzeStep) {
		s.logger = logger
	}
}

// NewAnalyzeStep creates an analyze step.
func NewAnalyzeStep(opts ...AnalyzeStepOption) *AnalyzeStep {
	s := &AnalyzeStep{
		lang:   i18n.Default,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do executes the analyze step.
func (s *AnalyzeStep) Do(_ context.Context, detection *model.Detection) error {
	opts := []detector.Option{
		detector.WithLanguage(s.lang),
		detector.WithClock(s.now),
	}
	detection.Metadata.Language = s.lang.String()

	if detection.Snapshot == nil {
		reason := detection.CollectError
		if reason == "" {
			reason = "no snapshot collected"
		}
		detection.Result = detector.Failed(errors.New(reason), opts...)
		return nil
	}

	detection.Result = detector.Analyze(detection.Snapshot, opts...)
	s.logger.Info("page analyzed",
		"url", detection.URL,
		"score", detection.Result.Score,
		"detected", len(detection.Result.DetectedFeatures()),
	)
	return nil
}

// PersistStep saves the detection as a record.
// Failed detections are not saved unless configured otherwise.
type PersistStep struct {
	store        RecordStore
	saveFailures bool
	logger       *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithSaveFailures stores zero-score failure results as well.
func WithSaveFailures(save bool) PersistStepOption {
	return func(s *PersistStep) {
		s.saveFailures = save
	}
}

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a persist step writing to store.
func NewPersistStep(store RecordStore, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, detection *model.Detection) error {
	record := detection.Record()
	if record == nil {
		return ErrNotAnalyzed
	}
	if record.Failed && !s.saveFailures {
		s.logger.Debug("skipping failed detection", "url", detection.URL)
		return nil
	}
	if err := s.store.SaveRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to save record for %s: %w", detection.URL, err)
	}
	detection.RecordID = record.ID
	s.logger.Debug("record saved", "url", detection.URL, "id", record.ID)
	return nil
}

// DefaultPipeline creates the standard collect, analyze and persist
// pipeline for cfg. The persist step is added only when store is non-nil.
// The pipeline continues past a failed persist step so that the score is
// still reported.
func DefaultPipeline(cfg *config.Config, store RecordStore, lang i18n.Language, opts ...Option) *Pipeline {
	p := New(append([]Option{WithContinueOnError(true)}, opts...)...)

	p.AddSteps(
		NewCollectStep(collector.NewFactory(cfg),
			WithCollectTimeout(cfg.Timeout),
			WithCollectLogger(p.logger),
		),
		NewAnalyzeStep(
			WithAnalyzeLanguage(lang),
			WithAnalyzeLogger(p.logger),
		),
	)
	if store != nil {
		p.AddStep(NewPersistStep(store, WithPersistLogger(p.logger)))
	}
	return p
}
