package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/deltaconsumer/delta"
	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/logger"
	"github.com/teranos/deltaconsumer/rdf"
)

// Source fetches delta files and manages their transient copies.
// *delta.Client implements it.
type Source interface {
	Download(ctx context.Context, f delta.File) error
	ReadChangeSets(f delta.File) ([]rdf.ChangeSet, error)
	Remove(f delta.File) error
}

// Result summarizes one ingested file.
type Result struct {
	ChangeSets int
	Inserts    int
	Deletes    int
	Staged     int // subjects left in staging after routing; -1 if unknown
}

// Ingester runs the full pipeline for one delta file: download, apply
// every changeset, route once, remove the transient copy.
type Ingester struct {
	source  Source
	applier *Applier
	router  *Router
	logger  *zap.SugaredLogger
}

// NewIngester creates an Ingester.
func NewIngester(source Source, applier *Applier, router *Router, log *zap.SugaredLogger) *Ingester {
	return &Ingester{source: source, applier: applier, router: router, logger: logger.AddIXSymbol(logger.OrNop(log))}
}

// Ingest processes f. On failure the transient copy is kept and the error
// carries the kind of the failing step.
func (i *Ingester) Ingest(ctx context.Context, f delta.File) (Result, error) {
	res := Result{Staged: -1}
	log := logger.ChildLogger(i.logger, logger.FieldFileID, f.ID, logger.FieldFileName, f.Name)
	start := time.Now()

	if err := i.source.Download(ctx, f); err != nil {
		return res, err
	}

	changeSets, err := i.source.ReadChangeSets(f)
	if err != nil {
		return res, err
	}
	res.ChangeSets = len(changeSets)

	for n, cs := range changeSets {
		if err := i.applier.Apply(ctx, cs); err != nil {
			return res, errors.Wrapf(err, "changeset %d", n)
		}
		res.Inserts += len(cs.Inserts)
		res.Deletes += len(cs.Deletes)
	}

	if err := i.router.Route(ctx); err != nil {
		return res, err
	}

	if staged, err := i.router.StagedSubjects(ctx); err != nil {
		log.Warnw("Could not count staged subjects", logger.FieldError, err)
	} else {
		res.Staged = staged
		if staged > 0 {
			log.Warnw("Subjects left in staging graph match no routing rule",
				logger.FieldCount, staged,
				logger.FieldGraph, i.router.cfg.Staging)
		}
	}

	if err := i.source.Remove(f); err != nil {
		log.Warnw("Could not remove transient copy", logger.FieldError, err)
	}

	log.Infow("Ingested delta file",
		"changesets", res.ChangeSets,
		"inserts", res.Inserts,
		"deletes", res.Deletes,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return res, nil
}
