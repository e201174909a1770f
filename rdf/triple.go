package rdf

import (
	"encoding/json"
	"io"

	"github.com/teranos/deltaconsumer/errors"
)

// Well-known predicates.
const (
	RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	MuUUID  = "http://mu.semte.ch/vocabularies/core/uuid"
)

// Triple is one statement.
type Triple struct {
	Subject   Term `json:"subject"`
	Predicate Term `json:"predicate"`
	Object    Term `json:"object"`
}

// NewTriple is shorthand for a triple whose subject and predicate are IRIs.
func NewTriple(subject, predicate string, object Term) Triple {
	return Triple{Subject: URI(subject), Predicate: URI(predicate), Object: object}
}

// ChangeSet is one unit of change in a delta file. Inserts are applied
// before deletes.
type ChangeSet struct {
	Inserts []Triple `json:"inserts"`
	Deletes []Triple `json:"deletes"`
}

// Len returns the number of triples touched by the changeset.
func (c ChangeSet) Len() int {
	return len(c.Inserts) + len(c.Deletes)
}

// DecodeChangeSets reads the JSON array of changesets a delta file contains.
// Changesets are returned in file order.
func DecodeChangeSets(r io.Reader) ([]ChangeSet, error) {
	var changeSets []ChangeSet
	dec := json.NewDecoder(r)
	if err := dec.Decode(&changeSets); err != nil {
		return nil, errors.Parse(err, "decode changesets")
	}
	if changeSets == nil {
		return nil, errors.Parse(errors.New("expected a JSON array of changesets"), "decode changesets")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.Parse(errors.New("unexpected content after the changeset array"), "decode changesets")
	}
	return changeSets, nil
}
