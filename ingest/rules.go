// Package ingest applies the changesets of one delta file to the store and
// routes the staged result into its destination graphs.
package ingest

import (
	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/sparql"
)

// Default graph names.
const (
	DefaultPublicGraph        = "http://mu.semte.ch/graphs/public"
	DefaultStagingGraph       = "http://mu.semte.ch/graphs/tmp-ingest-gelinkt-notuleren-mandatarissen-consumer"
	DefaultOrganizationPrefix = "http://mu.semte.ch/graphs/organizations/"
)

// Vocabulary used by the default rule table.
const (
	nsExt     = "http://mu.semte.ch/vocabularies/ext/"
	nsMandaat = "http://data.vlaanderen.be/ns/mandaat#"
	nsBesluit = "http://data.vlaanderen.be/ns/besluit#"
	nsOrg     = "http://www.w3.org/ns/org#"
	nsPerson  = "http://www.w3.org/ns/person#"
	nsPersoon = "http://data.vlaanderen.be/ns/persoon#"
	nsProv    = "http://www.w3.org/ns/prov#"
)

// RuleKind selects how a rule picks its destination graph.
type RuleKind int

const (
	// RulePublic moves matching subjects to the public graph.
	RulePublic RuleKind = iota
	// RuleOwned moves matching subjects to the graph of the organization
	// found at the end of the owner path.
	RuleOwned
)

func (k RuleKind) String() string {
	if k == RuleOwned {
		return "owned"
	}
	return "public"
}

// Rule routes every staged subject of Type.
type Rule struct {
	Kind      RuleKind
	Type      string
	OwnerPath []sparql.PredicateStep // RuleOwned only
}

// PublicRule returns a rule moving subjects of typeIRI to the public graph.
func PublicRule(typeIRI string) Rule {
	return Rule{Kind: RulePublic, Type: typeIRI}
}

// OwnedRule returns a rule moving subjects of typeIRI to the graph of the
// organization reached through path.
func OwnedRule(typeIRI string, path ...sparql.PredicateStep) Rule {
	return Rule{Kind: RuleOwned, Type: typeIRI, OwnerPath: path}
}

func (r Rule) String() string {
	if r.Kind == RuleOwned {
		return r.Kind.String() + " " + r.Type + " via " + sparql.CompilePath(r.OwnerPath)
	}
	return r.Kind.String() + " " + r.Type
}

// Validate reports whether r can be evaluated.
func (r Rule) Validate() error {
	if r.Type == "" {
		return errors.New("rule has no type")
	}
	if r.Kind == RuleOwned && len(r.OwnerPath) == 0 {
		return errors.Newf("owned rule for %s has no owner path", r.Type)
	}
	for i, step := range r.OwnerPath {
		if step.Predicate == "" {
			return errors.Newf("owned rule for %s: step %d has no predicate", r.Type, i)
		}
	}
	return nil
}

// mandateToOrganization leads from a mandate holder (mandaat:Mandataris) to
// the administrative unit it serves.
func mandateToOrganization() []sparql.PredicateStep {
	return []sparql.PredicateStep{
		sparql.Forward(nsOrg + "holds"),
		sparql.Inverse(nsOrg + "hasPost"),
		sparql.Forward(nsMandaat + "isTijdspecialisatieVan"),
		sparql.Forward(nsBesluit + "bestuurt"),
	}
}

// DefaultRules returns the rule table for the mandatarissen sync: code lists
// and governance structure are public, personal data belongs to the
// organization the person holds a mandate in.
func DefaultRules() []Rule {
	personPath := append([]sparql.PredicateStep{
		sparql.Inverse(nsMandaat + "isBestuurlijkeAliasVan"),
	}, mandateToOrganization()...)

	birthPath := append([]sparql.PredicateStep{
		sparql.Inverse(nsPersoon + "heeftGeboorte"),
	}, personPath...)

	return []Rule{
		PublicRule(nsExt + "MandatarisStatusCode"),
		PublicRule(nsExt + "BeleidsdomeinCode"),
		PublicRule(nsMandaat + "Mandataris"),
		PublicRule(nsOrg + "Membership"),
		PublicRule(nsMandaat + "Fractie"),
		PublicRule(nsMandaat + "Mandaat"),
		PublicRule(nsExt + "BestuursfunctieCode"),
		PublicRule(nsBesluit + "Bestuursorgaan"),
		PublicRule(nsExt + "BestuursorgaanClassificatieCode"),
		PublicRule(nsBesluit + "Bestuurseenheid"),
		PublicRule(nsExt + "BestuurseenheidClassificatieCode"),
		PublicRule(nsProv + "Location"),
		OwnedRule(nsPerson+"Person", personPath...),
		OwnedRule(nsPersoon+"Geboorte", birthPath...),
	}
}

// DedupeRules drops repeated rules for the same kind and type, keeping the
// first occurrence and the original order.
func DedupeRules(rules []Rule) []Rule {
	type key struct {
		kind RuleKind
		typ  string
	}
	seen := make(map[key]struct{}, len(rules))
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		k := key{r.Kind, r.Type}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
