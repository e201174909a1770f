package am

import (
	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/ingest"
	"github.com/teranos/deltaconsumer/sparql"
)

// RoutingRules builds the router's rule table. An empty routing section
// means the built-in table.
func (c *Config) RoutingRules() ([]ingest.Rule, error) {
	if len(c.Routing.PublicTypes) == 0 && len(c.Routing.Owned) == 0 {
		return ingest.DefaultRules(), nil
	}

	rules := make([]ingest.Rule, 0, len(c.Routing.PublicTypes)+len(c.Routing.Owned))
	for _, typeIRI := range c.Routing.PublicTypes {
		rules = append(rules, ingest.PublicRule(typeIRI))
	}
	for i, o := range c.Routing.Owned {
		path, err := sparql.ParsePath(o.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "routing.owned[%d] (%s)", i, o.Type)
		}
		rules = append(rules, ingest.OwnedRule(o.Type, path...))
	}
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, errors.Wrapf(err, "routing rule %d", i)
		}
	}
	return rules, nil
}

// routingFromRules is the inverse of RoutingRules.
func routingFromRules(rules []ingest.Rule) RoutingConfig {
	var rc RoutingConfig
	for _, r := range rules {
		if r.Kind == ingest.RulePublic {
			rc.PublicTypes = append(rc.PublicTypes, r.Type)
			continue
		}
		path := make([]string, len(r.OwnerPath))
		for i, step := range r.OwnerPath {
			path[i] = step.String()
		}
		rc.Owned = append(rc.Owned, OwnedRuleConfig{Type: r.Type, Path: path})
	}
	return rc
}
