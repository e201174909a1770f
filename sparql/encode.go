// Package sparql renders the data model as SPARQL 1.1 text: escaped terms,
// statement blocks, property paths and the update requests the consumer
// sends to a triplestore.
package sparql

import (
	"fmt"
	"strings"

	"github.com/teranos/deltaconsumer/logger"
	"github.com/teranos/deltaconsumer/rdf"
)

// EncodeTerm renders one term. Terms of an unrecognized kind are logged and
// rendered as a plain string literal; encoding never fails.
func EncodeTerm(t rdf.Term) string {
	switch t.Kind {
	case rdf.KindURI:
		return EscapeIRI(t.Value)
	case rdf.KindTypedLiteral:
		return EscapeString(t.Value) + "^^" + EscapeIRI(t.Datatype)
	case rdf.KindLangLiteral:
		if lang := sanitizeLang(t.Lang); lang != "" {
			return EscapeString(t.Value) + "@" + lang
		}
		return EscapeString(t.Value)
	case rdf.KindPlainLiteral:
		return EscapeString(t.Value)
	default:
		logger.Warnw("Unrecognized term type, encoding as string literal",
			"wire_type", t.WireType,
			"value", t.Value)
		return EscapeString(t.Value)
	}
}

// EncodeTriple renders one triple as a statement terminated by " .".
func EncodeTriple(t rdf.Triple) string {
	return EncodeTerm(t.Subject) + " " + EncodeTerm(t.Predicate) + " " + EncodeTerm(t.Object) + " ."
}

// EncodeTriples renders triples as one statement per line, in order.
func EncodeTriples(triples []rdf.Triple) string {
	var b strings.Builder
	for i, t := range triples {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(EncodeTriple(t))
	}
	return b.String()
}

// EscapeString renders s as a double-quoted SPARQL string literal.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// EscapeIRI renders iri as an IRIREF. Characters IRIREF does not allow are
// percent-encoded.
func EscapeIRI(iri string) string {
	var b strings.Builder
	b.Grow(len(iri) + 2)
	b.WriteByte('<')
	for _, r := range iri {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			for _, c := range []byte(string(r)) {
				fmt.Fprintf(&b, "%%%02X", c)
			}
			continue
		}
		b.WriteRune(r)
	}
	b.WriteByte('>')
	return b.String()
}

// sanitizeLang keeps the characters a LANGTAG may contain.
func sanitizeLang(lang string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return -1
	}, lang)
}
