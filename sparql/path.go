package sparql

import (
	"strings"

	"github.com/teranos/deltaconsumer/errors"
)

// PredicateStep is one hop of a property path.
type PredicateStep struct {
	Predicate string
	Inverse   bool
}

// Forward returns a step following predicate from subject to object.
func Forward(predicate string) PredicateStep {
	return PredicateStep{Predicate: predicate}
}

// Inverse returns a step following predicate from object to subject.
func Inverse(predicate string) PredicateStep {
	return PredicateStep{Predicate: predicate, Inverse: true}
}

// String returns the shorthand used in configuration: the IRI, prefixed
// with ^ for inverse steps.
func (s PredicateStep) String() string {
	if s.Inverse {
		return "^" + s.Predicate
	}
	return s.Predicate
}

// ParsePredicateStep parses the configuration shorthand produced by String.
func ParsePredicateStep(s string) (PredicateStep, error) {
	s = strings.TrimSpace(s)
	step := PredicateStep{Predicate: s}
	if strings.HasPrefix(s, "^") {
		step = PredicateStep{Predicate: strings.TrimSpace(s[1:]), Inverse: true}
	}
	if step.Predicate == "" {
		return PredicateStep{}, errors.Newf("empty predicate in path step %q", s)
	}
	return step, nil
}

// ParsePath parses a list of shorthand steps.
func ParsePath(steps []string) ([]PredicateStep, error) {
	path := make([]PredicateStep, 0, len(steps))
	for i, s := range steps {
		step, err := ParsePredicateStep(s)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", i)
		}
		path = append(path, step)
	}
	return path, nil
}

// CompilePath renders steps as a SPARQL sequence path, keeping their order.
func CompilePath(steps []PredicateStep) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		if s.Inverse {
			parts[i] = "^" + EscapeIRI(s.Predicate)
		} else {
			parts[i] = EscapeIRI(s.Predicate)
		}
	}
	return strings.Join(parts, "/")
}
