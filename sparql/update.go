package sparql

import (
	"fmt"
	"strings"

	"github.com/teranos/deltaconsumer/rdf"
)

// InsertData returns an INSERT DATA request that adds triples to graph.
func InsertData(graph string, triples []rdf.Triple) string {
	return fmt.Sprintf(`INSERT DATA {
  GRAPH %s {
%s
  }
}`, EscapeIRI(graph), indent(EncodeTriples(triples), "    "))
}

// DeleteEverywhere returns a DELETE WHERE request that removes t from every
// graph containing it. A triple absent from all graphs matches nothing.
func DeleteEverywhere(t rdf.Triple) string {
	return fmt.Sprintf(`DELETE WHERE {
  GRAPH ?g {
    %s
  }
}`, EncodeTriple(t))
}

// MoveTyped returns a request moving every triple of each subject typed
// with typeIRI from one graph to another.
func MoveTyped(from, to, typeIRI string) string {
	return fmt.Sprintf(`DELETE {
  GRAPH %[1]s {
    ?s ?p ?o .
  }
} INSERT {
  GRAPH %[2]s {
    ?s ?p ?o .
  }
} WHERE {
  GRAPH %[1]s {
    ?s a %[3]s ;
      ?p ?o .
  }
}`, EscapeIRI(from), EscapeIRI(to), EscapeIRI(typeIRI))
}

// OwnedMove describes a move into per-owner graphs.
type OwnedMove struct {
	From        string          // graph the subjects are staged in
	Public      string          // graph holding the owner identifiers
	Type        string          // type of the subjects to move
	OwnerPath   []PredicateStep // path from a subject to its owner
	IDPredicate string          // owner predicate holding its identifier
	GraphPrefix string          // destination graph = prefix + identifier
}

// MoveOwned returns a request moving every staged subject of m.Type into the
// graph of the owner found at the end of m.OwnerPath.
func MoveOwned(m OwnedMove) string {
	return fmt.Sprintf(`DELETE {
  GRAPH %[1]s {
    ?s ?p ?o .
  }
} INSERT {
  GRAPH ?ownerGraph {
    ?s ?p ?o .
  }
} WHERE {
  GRAPH %[1]s {
    ?s a %[2]s ;
      ?p ?o .
  }
  ?s %[3]s ?owner .
  GRAPH %[4]s {
    ?owner %[5]s ?ownerId .
  }
  BIND(IRI(CONCAT(%[6]s, STR(?ownerId))) AS ?ownerGraph)
}`, EscapeIRI(m.From), EscapeIRI(m.Type), CompilePath(m.OwnerPath),
		EscapeIRI(m.Public), EscapeIRI(m.IDPredicate), EscapeString(m.GraphPrefix))
}

// CountSubjects returns a SELECT query counting the distinct subjects in
// graph, bound to ?count.
func CountSubjects(graph string) string {
	return fmt.Sprintf(`SELECT (COUNT(DISTINCT ?s) AS ?count) WHERE {
  GRAPH %s {
    ?s ?p ?o .
  }
}`, EscapeIRI(graph))
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
