// Package rdf holds the data model of a delta file: terms, triples and the
// changesets that group them.
package rdf

import (
	"encoding/json"

	"github.com/teranos/deltaconsumer/errors"
)

// Kind tags the variant of a Term.
type Kind uint8

const (
	// KindUnknown is a term whose wire type was not recognized. It is kept
	// rather than rejected so one odd term cannot fail a whole file.
	KindUnknown Kind = iota
	KindURI
	KindPlainLiteral
	KindLangLiteral
	KindTypedLiteral
)

func (k Kind) String() string {
	switch k {
	case KindURI:
		return "uri"
	case KindPlainLiteral:
		return "literal"
	case KindLangLiteral:
		return "lang-literal"
	case KindTypedLiteral:
		return "typed-literal"
	default:
		return "unknown"
	}
}

// Wire types used by the delta file format.
const (
	WireURI          = "uri"
	WireLiteral      = "literal"
	WireTypedLiteral = "typed-literal"
)

// Term is one position of a triple. It is a value type: two terms are the
// same term exactly when they compare equal with ==.
type Term struct {
	Kind     Kind
	Value    string
	Lang     string // KindLangLiteral only
	Datatype string // KindTypedLiteral only
	WireType string // KindUnknown only: the type as it appeared on the wire
}

// URI returns an IRI term.
func URI(iri string) Term {
	return Term{Kind: KindURI, Value: iri}
}

// Literal returns a plain literal.
func Literal(value string) Term {
	return Term{Kind: KindPlainLiteral, Value: value}
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLangLiteral, Value: value, Lang: lang}
}

// TypedLiteral returns a literal with a datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: KindTypedLiteral, Value: value, Datatype: datatype}
}

// IsURI reports whether t is an IRI term.
func (t Term) IsURI() bool { return t.Kind == KindURI }

// wireTerm is the JSON shape of a term in a delta file.
type wireTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// UnmarshalJSON decodes a term from the delta file format. A datatype
// takes priority over a language tag, and both only apply to literals.
func (t *Term) UnmarshalJSON(data []byte) error {
	var w wireTerm
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "decode term")
	}

	switch w.Type {
	case WireURI:
		*t = URI(w.Value)
	case WireLiteral, WireTypedLiteral:
		switch {
		case w.Datatype != "":
			*t = TypedLiteral(w.Value, w.Datatype)
		case w.Lang != "":
			*t = LangLiteral(w.Value, w.Lang)
		default:
			*t = Literal(w.Value)
		}
	default:
		*t = Term{Kind: KindUnknown, Value: w.Value, WireType: w.Type}
	}
	return nil
}

// MarshalJSON encodes a term in the delta file format.
func (t Term) MarshalJSON() ([]byte, error) {
	w := wireTerm{Value: t.Value}
	switch t.Kind {
	case KindURI:
		w.Type = WireURI
	case KindPlainLiteral:
		w.Type = WireLiteral
	case KindLangLiteral:
		w.Type = WireLiteral
		w.Lang = t.Lang
	case KindTypedLiteral:
		w.Type = WireTypedLiteral
		w.Datatype = t.Datatype
	default:
		w.Type = t.WireType
	}
	return json.Marshal(w)
}
