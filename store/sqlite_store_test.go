package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/deltaconsumer/errors"
	qtest "github.com/teranos/deltaconsumer/internal/testing"
	"github.com/teranos/deltaconsumer/rdf"
	"github.com/teranos/deltaconsumer/sparql"
)

const (
	staging = "http://mu.semte.ch/graphs/tmp-ingest"
	public  = "http://mu.semte.ch/graphs/public"
	orgs    = "http://mu.semte.ch/graphs/organizations/"

	mandataris = "http://data.vlaanderen.be/ns/mandaat#Mandataris"
	person     = "http://www.w3.org/ns/person#Person"
	aliasOf    = "http://data.vlaanderen.be/ns/mandaat#isBestuurlijkeAliasVan"
	holds      = "http://www.w3.org/ns/org#holds"
	foafName   = "http://xmlns.com/foaf/0.1/name"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	return NewSQLiteStore(qtest.CreateMigratedTestDB(t), 0, nil)
}

func TestSQLiteStore_InsertIsIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	triples := []rdf.Triple{
		rdf.NewTriple("http://example.org/a", foafName, rdf.Literal("A")),
		rdf.NewTriple("http://example.org/a", foafName, rdf.LangLiteral("A", "nl")),
	}
	require.NoError(t, s.InsertData(ctx, staging, triples))
	require.NoError(t, s.InsertData(ctx, staging, triples))

	got, err := s.Triples(ctx, staging)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, s.InsertData(ctx, staging, nil))
}

func TestSQLiteStore_DeleteEverywhere(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	tr := rdf.NewTriple("http://example.org/a", foafName, rdf.Literal("A"))
	keep := rdf.NewTriple("http://example.org/a", foafName, rdf.LangLiteral("A", "en"))
	require.NoError(t, s.InsertData(ctx, staging, []rdf.Triple{tr, keep}))
	require.NoError(t, s.InsertData(ctx, public, []rdf.Triple{tr}))

	require.NoError(t, s.DeleteEverywhere(ctx, tr))

	got, err := s.Triples(ctx, staging)
	require.NoError(t, err)
	assert.Equal(t, []rdf.Triple{keep}, got)

	graphs, err := s.Graphs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{staging}, graphs)

	// absent triple
	require.NoError(t, s.DeleteEverywhere(ctx, tr))
}

func TestSQLiteStore_UnknownTermMatchesPlainLiteral(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	unknown := rdf.Triple{
		Subject:   rdf.URI("http://example.org/a"),
		Predicate: rdf.URI(foafName),
		Object:    rdf.Term{Kind: rdf.KindUnknown, Value: "x", WireType: "bnode"},
	}
	plain := rdf.NewTriple("http://example.org/a", foafName, rdf.Literal("x"))
	require.Equal(t, sparql.EncodeTriple(unknown), sparql.EncodeTriple(plain))

	require.NoError(t, s.InsertData(ctx, staging, []rdf.Triple{unknown}))
	got, err := s.Triples(ctx, staging)
	require.NoError(t, err)
	assert.Equal(t, []rdf.Triple{plain}, got)

	require.NoError(t, s.DeleteEverywhere(ctx, plain))
	got, err = s.Triples(ctx, staging)
	require.NoError(t, err)
	assert.Empty(t, got)

	// and the other way round
	require.NoError(t, s.InsertData(ctx, staging, []rdf.Triple{plain}))
	require.NoError(t, s.DeleteEverywhere(ctx, unknown))
	n, err := s.CountSubjects(ctx, staging)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStore_MoveTyped(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertData(ctx, staging, []rdf.Triple{
		rdf.NewTriple("http://example.org/m1", rdf.RDFType, rdf.URI(mandataris)),
		rdf.NewTriple("http://example.org/m1", foafName, rdf.Literal("M1")),
		rdf.NewTriple("http://example.org/other", foafName, rdf.Literal("O")),
	}))

	require.NoError(t, s.MoveTyped(ctx, staging, public, mandataris))

	moved, err := s.Triples(ctx, public)
	require.NoError(t, err)
	assert.Len(t, moved, 2)

	left, err := s.Triples(ctx, staging)
	require.NoError(t, err)
	assert.Equal(t, []rdf.Triple{
		rdf.NewTriple("http://example.org/other", foafName, rdf.Literal("O")),
	}, left)

	n, err := s.CountSubjects(ctx, staging)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func ownedPersonMove() sparql.OwnedMove {
	return sparql.OwnedMove{
		From:        staging,
		Public:      public,
		Type:        person,
		OwnerPath:   []sparql.PredicateStep{sparql.Inverse(aliasOf), sparql.Forward(holds)},
		IDPredicate: rdf.MuUUID,
		GraphPrefix: orgs,
	}
}

func TestSQLiteStore_MoveOwned(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertData(ctx, public, []rdf.Triple{
		rdf.NewTriple("http://example.org/m1", aliasOf, rdf.URI("http://example.org/alice")),
		rdf.NewTriple("http://example.org/m1", holds, rdf.URI("http://example.org/org1")),
		rdf.NewTriple("http://example.org/org1", rdf.MuUUID, rdf.Literal("abc")),
	}))
	require.NoError(t, s.InsertData(ctx, staging, []rdf.Triple{
		rdf.NewTriple("http://example.org/alice", rdf.RDFType, rdf.URI(person)),
		rdf.NewTriple("http://example.org/alice", foafName, rdf.Literal("Alice")),
		rdf.NewTriple("http://example.org/bob", rdf.RDFType, rdf.URI(person)),
	}))

	require.NoError(t, s.MoveOwned(ctx, ownedPersonMove()))

	owned, err := s.Triples(ctx, orgs+"abc")
	require.NoError(t, err)
	assert.Equal(t, []rdf.Triple{
		rdf.NewTriple("http://example.org/alice", rdf.RDFType, rdf.URI(person)),
		rdf.NewTriple("http://example.org/alice", foafName, rdf.Literal("Alice")),
	}, owned)

	// bob has no owner and stays staged
	left, err := s.Triples(ctx, staging)
	require.NoError(t, err)
	assert.Equal(t, []rdf.Triple{
		rdf.NewTriple("http://example.org/bob", rdf.RDFType, rdf.URI(person)),
	}, left)
}

func TestSQLiteStore_MoveOwnedToEveryOwner(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertData(ctx, public, []rdf.Triple{
		rdf.NewTriple("http://example.org/m1", aliasOf, rdf.URI("http://example.org/alice")),
		rdf.NewTriple("http://example.org/m1", holds, rdf.URI("http://example.org/org1")),
		rdf.NewTriple("http://example.org/m2", aliasOf, rdf.URI("http://example.org/alice")),
		rdf.NewTriple("http://example.org/m2", holds, rdf.URI("http://example.org/org2")),
		rdf.NewTriple("http://example.org/org1", rdf.MuUUID, rdf.Literal("one")),
		rdf.NewTriple("http://example.org/org2", rdf.MuUUID, rdf.Literal("two")),
	}))
	require.NoError(t, s.InsertData(ctx, staging, []rdf.Triple{
		rdf.NewTriple("http://example.org/alice", rdf.RDFType, rdf.URI(person)),
	}))

	require.NoError(t, s.MoveOwned(ctx, ownedPersonMove()))

	graphs, err := s.Graphs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{orgs + "one", orgs + "two", public}, graphs)
}

func TestSQLiteStore_InsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT OR IGNORE INTO quads").
		ExpectExec().
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	s := NewSQLiteStore(db, 0, nil)
	err = s.InsertData(context.Background(), staging, []rdf.Triple{
		rdf.NewTriple("http://example.org/a", foafName, rdf.Literal("A")),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_IgnoresCallerCancellation(t *testing.T) {
	s := newSQLiteStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.InsertData(ctx, staging, []rdf.Triple{
		rdf.NewTriple("http://example.org/a", foafName, rdf.Literal("A")),
	}))
	n, err := s.CountSubjects(ctx, staging)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
