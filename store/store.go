// Package store is the consumer's view of the graph database: the handful
// of operations the applier and router need, with a SPARQL endpoint backend
// and an embedded SQLite backend.
package store

import (
	"context"
	"time"

	"github.com/teranos/deltaconsumer/rdf"
	"github.com/teranos/deltaconsumer/sparql"
)

// Store mutates and inspects a quad store. Each method is one atomic
// operation on the store.
type Store interface {
	// InsertData adds triples to graph. Inserting a present triple is a no-op.
	InsertData(ctx context.Context, graph string, triples []rdf.Triple) error

	// DeleteEverywhere removes t from every graph that contains it.
	// Deleting an absent triple is a no-op.
	DeleteEverywhere(ctx context.Context, t rdf.Triple) error

	// MoveTyped moves all triples of subjects typed typeIRI in from to to.
	MoveTyped(ctx context.Context, from, to, typeIRI string) error

	// MoveOwned moves the staged triples of each subject of m.Type into the
	// graph named after the identifier of the owner m.OwnerPath leads to.
	MoveOwned(ctx context.Context, m sparql.OwnedMove) error

	// CountSubjects returns the number of distinct subjects in graph.
	CountSubjects(ctx context.Context, graph string) (int, error)
}

// DefaultTimeout bounds a single store operation.
const DefaultTimeout = 5 * time.Minute

// operationContext derives the context a single store operation runs with.
// It ignores cancellation of parent so a shutdown never abandons a batch
// halfway, and bounds the operation with timeout instead.
func operationContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
