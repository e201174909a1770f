package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/teranos/deltaconsumer/errors"
	qtest "github.com/teranos/deltaconsumer/internal/testing"
	"github.com/teranos/deltaconsumer/rdf"
	"github.com/teranos/deltaconsumer/sparql"
	"github.com/teranos/deltaconsumer/store"
)

const (
	staging = "http://example.org/graphs/staging"
	public  = "http://example.org/graphs/public"
	orgs    = "http://example.org/graphs/organizations/"

	rdfsLabel = "http://www.w3.org/2000/01/rdf-schema#label"
)

func newSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	return store.NewSQLiteStore(qtest.CreateMigratedTestDB(t), 0, nil)
}

func triple(s, p string, o rdf.Term) rdf.Triple {
	return rdf.NewTriple(s, p, o)
}

// recordingStore records store calls and fails the call numbered failAt
// (1-based) when set.
type recordingStore struct {
	calls  []string
	sizes  []int
	failAt int
}

var _ store.Store = (*recordingStore)(nil)

func (r *recordingStore) record(call string) error {
	r.calls = append(r.calls, call)
	if r.failAt > 0 && len(r.calls) == r.failAt {
		return errors.Newf("%s failed", call)
	}
	return nil
}

func (r *recordingStore) InsertData(_ context.Context, graph string, triples []rdf.Triple) error {
	r.sizes = append(r.sizes, len(triples))
	return r.record("insert " + graph)
}

func (r *recordingStore) DeleteEverywhere(_ context.Context, t rdf.Triple) error {
	return r.record("delete " + t.Object.Value)
}

func (r *recordingStore) MoveTyped(_ context.Context, from, to, typeIRI string) error {
	return r.record(fmt.Sprintf("move %s -> %s", typeIRI, to))
}

func (r *recordingStore) MoveOwned(_ context.Context, m sparql.OwnedMove) error {
	return r.record("owned " + m.Type + " via " + sparql.CompilePath(m.OwnerPath))
}

func (r *recordingStore) CountSubjects(context.Context, string) (int, error) {
	return 0, r.record("count")
}
