package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/logger"
	"github.com/teranos/deltaconsumer/rdf"
	"github.com/teranos/deltaconsumer/store"
)

// DefaultBatchSize bounds the number of triples per insert statement.
const DefaultBatchSize = 100

// Applier writes changesets to the staging graph. Inserts go to staging in
// batches; deletes remove a triple from every graph holding it.
type Applier struct {
	store     store.Store
	staging   string
	batchSize int
	logger    *zap.SugaredLogger
}

// NewApplier creates an Applier. A batchSize <= 0 means DefaultBatchSize.
func NewApplier(s store.Store, staging string, batchSize int, log *zap.SugaredLogger) *Applier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Applier{store: s, staging: staging, batchSize: batchSize, logger: logger.OrNop(log)}
}

// Apply applies cs: all inserts, then all deletes.
func (a *Applier) Apply(ctx context.Context, cs rdf.ChangeSet) error {
	if err := a.ApplyInserts(ctx, cs.Inserts); err != nil {
		return err
	}
	return a.ApplyDeletes(ctx, cs.Deletes)
}

// ApplyInserts inserts triples into the staging graph in order, one store
// operation per batch. It stops before the next batch once ctx is done.
func (a *Applier) ApplyInserts(ctx context.Context, triples []rdf.Triple) error {
	for start := 0; start < len(triples); start += a.batchSize {
		if err := ctx.Err(); err != nil {
			return errors.StoreWrite(err, "insert batches")
		}
		end := start + a.batchSize
		if end > len(triples) {
			end = len(triples)
		}
		batch := start / a.batchSize

		if err := a.store.InsertData(ctx, a.staging, triples[start:end]); err != nil {
			return errors.StoreWritef(err, "insert batch %d (triples %d-%d)", batch, start, end-1)
		}
		a.logger.Debugw("Inserted batch",
			logger.FieldBatch, batch,
			logger.FieldBatchSize, end-start,
			logger.FieldTotalCount, len(triples),
			logger.FieldGraph, a.staging)
	}
	return nil
}

// ApplyDeletes removes each triple from every graph, one store operation
// per triple.
func (a *Applier) ApplyDeletes(ctx context.Context, triples []rdf.Triple) error {
	for i, t := range triples {
		if err := ctx.Err(); err != nil {
			return errors.StoreWrite(err, "delete triples")
		}
		if err := a.store.DeleteEverywhere(ctx, t); err != nil {
			return errors.StoreWritef(err, "delete triple %d", i)
		}
	}
	if len(triples) > 0 {
		a.logger.Debugw("Deleted triples", logger.FieldCount, len(triples))
	}
	return nil
}
