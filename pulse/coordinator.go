// Package pulse drives ingestion: one coordinator runs polling cycles over
// the delta file catalog, a poller triggers cycles on an interval, and the
// watermark and ingestion history persist between them.
package pulse

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/deltaconsumer/db"
	"github.com/teranos/deltaconsumer/delta"
	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/ingest"
	"github.com/teranos/deltaconsumer/logger"
)

// Lister lists the delta files created at or after since.
type Lister interface {
	ListUnconsumed(ctx context.Context, since time.Time) ([]delta.File, error)
}

// FileIngester runs the ingestion pipeline for one file.
type FileIngester interface {
	Ingest(ctx context.Context, f delta.File) (ingest.Result, error)
}

// FailurePolicy decides what a cycle does after a file fails.
type FailurePolicy string

const (
	// PolicyAbort stops the cycle at the first failed file.
	PolicyAbort FailurePolicy = "abort"
	// PolicyContinue attempts the remaining files. The watermark still only
	// advances through the files before the first failure.
	PolicyContinue FailurePolicy = "continue"
)

// ParseFailurePolicy parses a policy name; empty means PolicyAbort.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicyContinue:
		return PolicyContinue, nil
	default:
		return "", errors.Newf("unknown failure policy %q (want abort or continue)", s)
	}
}

// OutcomeFunc is told the outcome of every attempted file.
type OutcomeFunc func(f delta.File, ok bool, err error)

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	Policy    FailurePolicy
	OnOutcome OutcomeFunc     // optional
	History   *IngestionStore // optional
	Now       func() time.Time
}

// CycleResult summarizes one polling cycle.
type CycleResult struct {
	Since     time.Time // watermark at cycle start
	Watermark time.Time // watermark after the cycle
	Listed    int
	Skipped   int
	Ingested  int
	Failed    int
	Aborted   bool // stopped early by a failure or cancellation
}

// Coordinator owns the watermark and runs cycles: list, then ingest each
// file strictly in listing order. It is not safe for concurrent cycles;
// Poller serializes them.
type Coordinator struct {
	lister     Lister
	ingester   FileIngester
	watermarks WatermarkStore
	history    *IngestionStore
	policy     FailurePolicy
	onOutcome  OutcomeFunc
	now        func() time.Time
	started    time.Time
	logger     *zap.SugaredLogger

	// ids of files ingested with Created equal to the watermark; the
	// catalog lists them again because since is inclusive
	atWatermark map[string]struct{}
}

// NewCoordinator creates a Coordinator. Without a stored watermark the
// cursor starts at the time the coordinator was created.
func NewCoordinator(lister Lister, ingester FileIngester, watermarks WatermarkStore, cfg CoordinatorConfig, log *zap.SugaredLogger) *Coordinator {
	if cfg.Policy == "" {
		cfg.Policy = PolicyAbort
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if watermarks == nil {
		watermarks = &MemoryWatermarkStore{}
	}
	return &Coordinator{
		lister:      lister,
		ingester:    ingester,
		watermarks:  watermarks,
		history:     cfg.History,
		policy:      cfg.Policy,
		onOutcome:   cfg.OnOutcome,
		now:         cfg.Now,
		started:     cfg.Now(),
		logger:      logger.OrNop(log),
		atWatermark: make(map[string]struct{}),
	}
}

// Watermark returns the current cursor.
func (c *Coordinator) Watermark(ctx context.Context) (time.Time, error) {
	since, ok, err := c.watermarks.Load(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return c.started, nil
	}
	return since, nil
}

// RunCycle lists unconsumed files and ingests them in order. The watermark
// is read once before listing and written once after the loop, to the
// creation time of the latest file ingested before any failure. It never
// moves backwards. A listing error ends the cycle with no change.
func (c *Coordinator) RunCycle(ctx context.Context) (CycleResult, error) {
	since, err := c.Watermark(ctx)
	if err != nil {
		return CycleResult{}, errors.Wrap(err, "read watermark")
	}
	res := CycleResult{Since: since, Watermark: since}

	files, err := c.lister.ListUnconsumed(ctx, since)
	if err != nil {
		return res, err
	}
	res.Listed = len(files)

	latest := since
	seen := c.atWatermark
	advancing := true

	for _, f := range files {
		if ctx.Err() != nil {
			res.Aborted = true
			break
		}
		if f.Created.Before(since) {
			c.logger.Warnw("Skipping delta file created before the watermark",
				logger.FieldFileID, f.ID,
				logger.FieldCreated, f.Created,
				logger.FieldSince, since)
			res.Skipped++
			continue
		}
		if _, done := seen[f.ID]; done && f.Created.Equal(since) {
			res.Skipped++
			continue
		}

		err := c.ingestFile(ctx, f)
		if err != nil {
			res.Failed++
			advancing = false
			if c.policy == PolicyAbort {
				res.Aborted = true
				break
			}
			continue
		}

		res.Ingested++
		if !advancing {
			continue
		}
		if f.Created.After(latest) {
			latest = f.Created
			seen = map[string]struct{}{}
		}
		if f.Created.Equal(latest) {
			seen[f.ID] = struct{}{}
		}
	}

	if latest.After(since) {
		if err := c.watermarks.Save(context.WithoutCancel(ctx), latest); err != nil {
			return res, errors.Wrap(err, "save watermark")
		}
		logger.AddATSymbol(c.logger).Debugw("Watermark advanced", logger.FieldSince, since, "watermark", latest)
	}
	c.atWatermark = seen
	res.Watermark = latest

	if res.Listed > 0 {
		c.logger.Infow("Cycle finished",
			logger.FieldSince, since,
			"watermark", latest,
			"listed", res.Listed,
			"ingested", res.Ingested,
			"failed", res.Failed,
			"skipped", res.Skipped)
	}
	return res, nil
}

// ingestFile runs one file through the ingester, recording its outcome.
func (c *Coordinator) ingestFile(ctx context.Context, f delta.File) error {
	start := c.now()
	record := &Ingestion{
		ID:          uuid.NewString(),
		FileID:      f.ID,
		FileName:    f.Name,
		FileCreated: f.Created,
		Status:      IngestionStatusRunning,
		StartedAt:   start,
	}
	log := logger.ChildLogger(c.logger, logger.FieldFileID, f.ID, logger.FieldIngestionID, record.ID)

	if c.history != nil {
		if err := c.history.CreateIngestion(context.WithoutCancel(ctx), record); err != nil {
			logHistoryError(log, "Failed to create ingestion record", err)
		}
	}

	result, err := c.ingester.Ingest(ctx, f)

	completed := c.now()
	duration := completed.Sub(start).Milliseconds()
	record.CompletedAt = &completed
	record.DurationMs = &duration
	record.ChangeSets = result.ChangeSets
	record.Inserts = result.Inserts
	record.Deletes = result.Deletes

	if err != nil {
		record.Status = IngestionStatusFailed
		record.ErrorKind = errors.KindOf(err)
		record.ErrorMessage = err.Error()
		log.Errorw("Delta file ingestion failed",
			logger.FieldFileName, f.Name,
			logger.FieldErrorKind, record.ErrorKind,
			logger.FieldDurationMS, duration,
			logger.FieldError, err)
	} else {
		record.Status = IngestionStatusCompleted
	}

	if c.history != nil {
		if herr := c.history.UpdateIngestion(context.WithoutCancel(ctx), record); herr != nil {
			logHistoryError(log, "Failed to update ingestion record", herr)
		}
	}
	if c.onOutcome != nil {
		c.onOutcome(f, err == nil, err)
	}
	return err
}

// logHistoryError logs a failed history write. A closed database during
// shutdown is expected and only logged at debug level.
func logHistoryError(log *zap.SugaredLogger, msg string, err error) {
	if db.IsDatabaseClosed(err) {
		log.Debugw(msg, logger.FieldError, err)
		return
	}
	log.Warnw(msg, logger.FieldError, err)
}

// SetWatermark replaces the stored watermark. It is the operator override
// behind "watermark set" and may move the cursor backwards.
func (c *Coordinator) SetWatermark(ctx context.Context, since time.Time) error {
	if err := c.watermarks.Save(ctx, since); err != nil {
		return err
	}
	c.atWatermark = make(map[string]struct{})
	logger.AddATSymbol(c.logger).Infow("Watermark set", "watermark", since)
	return nil
}
