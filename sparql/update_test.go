package sparql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/deltaconsumer/rdf"
)

const (
	stagingGraph = "http://mu.semte.ch/graphs/tmp-ingest"
	publicGraph  = "http://mu.semte.ch/graphs/public"
)

func TestInsertData(t *testing.T) {
	q := InsertData(stagingGraph, []rdf.Triple{
		rdf.NewTriple("http://example.org/a", "http://example.org/p", rdf.Literal("1")),
		rdf.NewTriple("http://example.org/b", "http://example.org/p", rdf.Literal("2")),
	})

	assert.Equal(t, `INSERT DATA {
  GRAPH <http://mu.semte.ch/graphs/tmp-ingest> {
    <http://example.org/a> <http://example.org/p> "1" .
    <http://example.org/b> <http://example.org/p> "2" .
  }
}`, q)
}

func TestDeleteEverywhere(t *testing.T) {
	q := DeleteEverywhere(rdf.NewTriple("http://example.org/a", "http://example.org/p", rdf.LangLiteral("x", "en")))

	assert.Equal(t, `DELETE WHERE {
  GRAPH ?g {
    <http://example.org/a> <http://example.org/p> "x"@en .
  }
}`, q)
}

func TestMoveTyped(t *testing.T) {
	q := MoveTyped(stagingGraph, publicGraph, "http://data.vlaanderen.be/ns/mandaat#Mandataris")

	assert.Contains(t, q, "DELETE {\n  GRAPH <"+stagingGraph+">")
	assert.Contains(t, q, "INSERT {\n  GRAPH <"+publicGraph+">")
	assert.Contains(t, q, "?s a <http://data.vlaanderen.be/ns/mandaat#Mandataris> ;")
}

func TestMoveOwned(t *testing.T) {
	q := MoveOwned(OwnedMove{
		From:   stagingGraph,
		Public: publicGraph,
		Type:   "http://www.w3.org/ns/person#Person",
		OwnerPath: []PredicateStep{
			Inverse("http://data.vlaanderen.be/ns/mandaat#isBestuurlijkeAliasVan"),
			Forward("http://www.w3.org/ns/org#holds"),
		},
		IDPredicate: rdf.MuUUID,
		GraphPrefix: "http://mu.semte.ch/graphs/organizations/",
	})

	assert.Contains(t, q, "GRAPH ?ownerGraph")
	assert.Contains(t, q, "?s ^<http://data.vlaanderen.be/ns/mandaat#isBestuurlijkeAliasVan>/<http://www.w3.org/ns/org#holds> ?owner .")
	assert.Contains(t, q, "GRAPH <"+publicGraph+"> {\n    ?owner <"+rdf.MuUUID+"> ?ownerId .")
	assert.Contains(t, q, `BIND(IRI(CONCAT("http://mu.semte.ch/graphs/organizations/", STR(?ownerId))) AS ?ownerGraph)`)
}

func TestCountSubjects(t *testing.T) {
	q := CountSubjects(stagingGraph)
	assert.Contains(t, q, "COUNT(DISTINCT ?s) AS ?count")
	assert.Contains(t, q, "GRAPH <"+stagingGraph+">")
}
