package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/logger"
	"github.com/teranos/deltaconsumer/rdf"
	"github.com/teranos/deltaconsumer/sparql"
	"github.com/teranos/deltaconsumer/store"
)

// RouterConfig names the graphs the router moves data between.
type RouterConfig struct {
	Staging            string
	Public             string
	OrganizationPrefix string
	Rules              []Rule // DefaultRules() when nil
}

// Router moves staged subjects to their destination graph, evaluating the
// rule table in order.
type Router struct {
	store  store.Store
	cfg    RouterConfig
	logger *zap.SugaredLogger
}

// NewRouter validates and deduplicates the rule table.
func NewRouter(s store.Store, cfg RouterConfig, log *zap.SugaredLogger) (*Router, error) {
	if cfg.Staging == "" {
		cfg.Staging = DefaultStagingGraph
	}
	if cfg.Public == "" {
		cfg.Public = DefaultPublicGraph
	}
	if cfg.OrganizationPrefix == "" {
		cfg.OrganizationPrefix = DefaultOrganizationPrefix
	}
	if cfg.Rules == nil {
		cfg.Rules = DefaultRules()
	}
	for i, r := range cfg.Rules {
		if err := r.Validate(); err != nil {
			return nil, errors.Wrapf(err, "routing rule %d", i)
		}
	}
	cfg.Rules = DedupeRules(cfg.Rules)

	return &Router{store: s, cfg: cfg, logger: logger.AddSOSymbol(logger.OrNop(log))}, nil
}

// Route applies every rule once. A rule matching nothing is a no-op;
// subjects matching no rule stay in staging.
func (r *Router) Route(ctx context.Context) error {
	for _, rule := range r.cfg.Rules {
		if err := ctx.Err(); err != nil {
			return errors.Routing(err, "route staged data")
		}

		var err error
		switch rule.Kind {
		case RulePublic:
			err = r.store.MoveTyped(ctx, r.cfg.Staging, r.cfg.Public, rule.Type)
		case RuleOwned:
			err = r.store.MoveOwned(ctx, sparql.OwnedMove{
				From:        r.cfg.Staging,
				Public:      r.cfg.Public,
				Type:        rule.Type,
				OwnerPath:   rule.OwnerPath,
				IDPredicate: rdf.MuUUID,
				GraphPrefix: r.cfg.OrganizationPrefix,
			})
		default:
			err = errors.Newf("unknown rule kind %d", rule.Kind)
		}
		if err != nil {
			return errors.Routingf(err, "apply rule %s", rule)
		}
		r.logger.Debugw("Applied routing rule", logger.FieldRule, rule.String())
	}
	return nil
}

// StagedSubjects returns the number of subjects left in the staging graph.
func (r *Router) StagedSubjects(ctx context.Context) (int, error) {
	return r.store.CountSubjects(ctx, r.cfg.Staging)
}
