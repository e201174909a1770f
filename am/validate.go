package am

import (
	"net/url"

	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/pulse"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Interval: <= 0 = manual only, so any value is valid

	// Batch size: 0 = default, negative = invalid
	if c.Ingest.BatchSize < 0 {
		return errors.Newf("ingest.batch_size must be >= 0, got %d", c.Ingest.BatchSize)
	}
	if _, err := pulse.ParseFailurePolicy(c.Ingest.OnFailure); err != nil {
		return errors.Wrap(err, "ingest.on_failure")
	}

	if err := validateHTTPURL("sync.base_url", c.Sync.BaseURL); err != nil {
		return err
	}
	if c.Sync.TimeoutSeconds < 0 {
		return errors.Newf("sync.timeout_seconds must be >= 0, got %d", c.Sync.TimeoutSeconds)
	}
	if c.Sync.MaxRedirects < 0 {
		return errors.Newf("sync.max_redirects must be >= 0, got %d", c.Sync.MaxRedirects)
	}
	if c.Sync.MaxRequestsPerSecond < 0 {
		return errors.Newf("sync.max_requests_per_second must be >= 0, got %f", c.Sync.MaxRequestsPerSecond)
	}

	if c.Graphs.Public == "" || c.Graphs.Staging == "" || c.Graphs.OrganizationPrefix == "" {
		return errors.New("graphs.public, graphs.staging and graphs.organization_prefix must be set")
	}
	if c.Graphs.Public == c.Graphs.Staging {
		return errors.Newf("graphs.staging must differ from graphs.public (%s)", c.Graphs.Public)
	}

	switch c.Store.Backend {
	case BackendSPARQL:
		if err := validateHTTPURL("store.endpoint", c.Store.Endpoint); err != nil {
			return err
		}
	case BackendSQLite:
	default:
		return errors.Newf("store.backend must be %q or %q, got %q", BackendSPARQL, BackendSQLite, c.Store.Backend)
	}
	if c.Store.TimeoutSeconds < 0 {
		return errors.Newf("store.timeout_seconds must be >= 0, got %d", c.Store.TimeoutSeconds)
	}

	if _, err := c.RoutingRules(); err != nil {
		return err
	}
	return nil
}

func validateHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrapf(err, "%s", key)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Newf("%s must be an http(s) URL, got %q", key, raw)
	}
	return nil
}
