package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/internal/httpclient"
	"github.com/teranos/deltaconsumer/logger"
	"github.com/teranos/deltaconsumer/rdf"
	"github.com/teranos/deltaconsumer/sparql"
)

// SudoHeader asks a mu-authorization proxy to run a request without
// applying access rules.
const SudoHeader = "mu-auth-sudo"

// SPARQLConfig configures a SPARQLStore.
type SPARQLConfig struct {
	Endpoint string        // SPARQL endpoint accepting both query and update
	Sudo     bool          // send the mu-auth-sudo header
	Timeout  time.Duration // per operation
}

// SPARQLStore talks SPARQL 1.1 protocol to a triplestore over HTTP.
type SPARQLStore struct {
	client   *httpclient.Client
	endpoint string
	sudo     bool
	timeout  time.Duration
	logger   *zap.SugaredLogger
}

var _ Store = (*SPARQLStore)(nil)

// NewSPARQLStore creates a store for the endpoint in cfg.
func NewSPARQLStore(cfg SPARQLConfig, client *httpclient.Client, log *zap.SugaredLogger) (*SPARQLStore, error) {
	if _, err := client.ValidateURL(cfg.Endpoint); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "invalid SPARQL endpoint"),
			"set store.endpoint to the triplestore's SPARQL URL")
	}
	return &SPARQLStore{
		client:   client,
		endpoint: cfg.Endpoint,
		sudo:     cfg.Sudo,
		timeout:  cfg.Timeout,
		logger:   logger.OrNop(log),
	}, nil
}

// Update sends one SPARQL update request.
func (s *SPARQLStore) Update(ctx context.Context, update string) error {
	resp, err := s.post(ctx, "update", update, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Results is the subset of the SPARQL JSON results format the consumer reads.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]Binding `json:"bindings"`
	} `json:"results"`
}

// Binding is one bound value in a result row.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Query sends one SPARQL SELECT query.
func (s *SPARQLStore) Query(ctx context.Context, query string) (*Results, error) {
	resp, err := s.post(ctx, "query", query, "application/sparql-results+json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var results Results
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, errors.Wrap(err, "decode SPARQL results")
	}
	return &results, nil
}

func (s *SPARQLStore) post(ctx context.Context, param, text, accept string) (*http.Response, error) {
	ctx, cancel := operationContext(ctx, s.timeout)

	form := url.Values{param: {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "build SPARQL request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if s.sudo {
		req.Header.Set(SudoHeader, "true")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		cancel()
		return nil, errors.Wrapf(err, "SPARQL %s request", param)
	}

	s.logger.Debugw("SPARQL request",
		logger.FieldOperation, param,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		cancel()
		return nil, errors.WithDetail(
			errors.Newf("SPARQL endpoint returned %s", resp.Status),
			strings.TrimSpace(string(body)))
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the operation context once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// InsertData implements Store.
func (s *SPARQLStore) InsertData(ctx context.Context, graph string, triples []rdf.Triple) error {
	if len(triples) == 0 {
		return nil
	}
	return s.Update(ctx, sparql.InsertData(graph, triples))
}

// DeleteEverywhere implements Store.
func (s *SPARQLStore) DeleteEverywhere(ctx context.Context, t rdf.Triple) error {
	return s.Update(ctx, sparql.DeleteEverywhere(t))
}

// MoveTyped implements Store.
func (s *SPARQLStore) MoveTyped(ctx context.Context, from, to, typeIRI string) error {
	return s.Update(ctx, sparql.MoveTyped(from, to, typeIRI))
}

// MoveOwned implements Store.
func (s *SPARQLStore) MoveOwned(ctx context.Context, m sparql.OwnedMove) error {
	return s.Update(ctx, sparql.MoveOwned(m))
}

// CountSubjects implements Store.
func (s *SPARQLStore) CountSubjects(ctx context.Context, graph string) (int, error) {
	results, err := s.Query(ctx, sparql.CountSubjects(graph))
	if err != nil {
		return 0, err
	}
	if len(results.Results.Bindings) == 0 {
		return 0, nil
	}
	b, ok := results.Results.Bindings[0]["count"]
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(b.Value)
	if err != nil {
		return 0, errors.Wrapf(err, "parse count %q", b.Value)
	}
	return n, nil
}
