package pulse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/deltaconsumer/delta"
	"github.com/teranos/deltaconsumer/ingest"
	"github.com/teranos/deltaconsumer/internal/httpclient"
	qtest "github.com/teranos/deltaconsumer/internal/testing"
	"github.com/teranos/deltaconsumer/rdf"
	"github.com/teranos/deltaconsumer/sparql"
	"github.com/teranos/deltaconsumer/store"
)

const (
	cycleStaging = "http://example.org/graphs/staging"
	cyclePublic  = "http://example.org/graphs/public"
	cycleOrgs    = "http://example.org/graphs/organizations/"

	nsMandaat = "http://data.vlaanderen.be/ns/mandaat#"
	nsBesluit = "http://data.vlaanderen.be/ns/besluit#"
	nsOrg     = "http://www.w3.org/ns/org#"
)

// catalog serves a JSON:API file listing and the changesets of each file,
// recording the since parameter of every listing request.
type catalog struct {
	mu     sync.Mutex
	files  []delta.File
	bodies map[string][]rdf.ChangeSet
	sinces []string
}

func (c *catalog) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sync/files", func(w http.ResponseWriter, r *http.Request) {
		since := r.URL.Query().Get("since")
		c.mu.Lock()
		c.sinces = append(c.sinces, since)
		c.mu.Unlock()

		from, err := time.Parse(time.RFC3339Nano, since)
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type entry struct {
			ID         string            `json:"id"`
			Type       string            `json:"type"`
			Attributes map[string]string `json:"attributes"`
		}
		doc := struct {
			Data []entry `json:"data"`
		}{Data: []entry{}}
		for _, f := range c.files {
			if f.Created.Before(from) {
				continue
			}
			doc.Data = append(doc.Data, entry{
				ID:   f.ID,
				Type: "files",
				Attributes: map[string]string{
					"created": f.Created.Format(time.RFC3339Nano),
					"name":    f.Name,
				},
			})
		}
		w.Header().Set("Content-Type", "application/vnd.api+json")
		assert.NoError(t, json.NewEncoder(w).Encode(doc))
	})
	mux.HandleFunc("/files/{id}/download", func(w http.ResponseWriter, r *http.Request) {
		body, ok := c.bodies[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		assert.NoError(t, json.NewEncoder(w).Encode(body))
	})
	return mux
}

func (c *catalog) listedSince() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sinces...)
}

func TestRunCycle_CatalogToOrganizationGraph(t *testing.T) {
	const (
		alice   = "http://example.org/alice"
		post    = "http://example.org/post/1"
		oit     = "http://example.org/orgaan-in-tijd/1"
		orgaan  = "http://example.org/orgaan/1"
		eenheid = "http://example.org/bestuurseenheid/1"
	)
	mandataris := nsMandaat + "Mandataris"
	created := t1.Add(123 * time.Millisecond)

	cat := &catalog{
		files: []delta.File{{ID: "f1", Created: created, Name: "delta-1.json"}},
		bodies: map[string][]rdf.ChangeSet{"f1": {
			{Inserts: []rdf.Triple{rdf.NewTriple(alice, rdf.RDFType, rdf.URI(mandataris))}},
			{Inserts: []rdf.Triple{
				rdf.NewTriple(alice, nsOrg+"holds", rdf.URI(post)),
				rdf.NewTriple(oit, nsOrg+"hasPost", rdf.URI(post)),
				rdf.NewTriple(oit, nsMandaat+"isTijdspecialisatieVan", rdf.URI(orgaan)),
				rdf.NewTriple(orgaan, nsBesluit+"bestuurt", rdf.URI(eenheid)),
				rdf.NewTriple(eenheid, rdf.RDFType, rdf.URI(nsBesluit+"Bestuurseenheid")),
				rdf.NewTriple(eenheid, rdf.MuUUID, rdf.Literal("abc")),
			}},
		}},
	}
	srv := httptest.NewServer(cat.handler(t))
	defer srv.Close()

	db := qtest.CreateMigratedTestDB(t)
	graphs := store.NewSQLiteStore(db, 0, nil)
	tmpDir := t.TempDir()
	client := delta.NewClient(delta.Config{
		BaseURL:   srv.URL,
		FilesPath: "/sync/files",
		TmpDir:    tmpDir,
	}, httpclient.New(httpclient.Options{}), nil)

	router, err := ingest.NewRouter(graphs, ingest.RouterConfig{
		Staging:            cycleStaging,
		Public:             cyclePublic,
		OrganizationPrefix: cycleOrgs,
		Rules: []ingest.Rule{
			ingest.PublicRule(nsBesluit + "Bestuurseenheid"),
			ingest.OwnedRule(mandataris,
				sparql.Forward(nsOrg+"holds"),
				sparql.Inverse(nsOrg+"hasPost"),
				sparql.Forward(nsMandaat+"isTijdspecialisatieVan"),
				sparql.Forward(nsBesluit+"bestuurt"),
			),
		},
	}, nil)
	require.NoError(t, err)

	ingester := ingest.NewIngester(client, ingest.NewApplier(graphs, cycleStaging, 2, nil), router, nil)
	history := NewIngestionStore(db)
	watermarks := &MemoryWatermarkStore{}
	c := NewCoordinator(client, ingester, watermarks, CoordinatorConfig{
		History: history,
		Now:     func() time.Time { return t0 },
	}, nil)

	ctx := context.Background()
	res, err := c.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Listed)
	assert.Equal(t, 1, res.Ingested)
	assert.Zero(t, res.Failed)
	assert.True(t, created.Equal(res.Watermark))

	// the first listing starts at process start
	assert.Equal(t, []string{t0.Format(delta.SinceFormat)}, cat.listedSince())

	stored, ok, err := watermarks.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, created.Equal(stored))

	owned, err := graphs.Triples(ctx, cycleOrgs+"abc")
	require.NoError(t, err)
	assert.Equal(t, []rdf.Triple{
		rdf.NewTriple(alice, rdf.RDFType, rdf.URI(mandataris)),
		rdf.NewTriple(alice, nsOrg+"holds", rdf.URI(post)),
	}, owned)

	public, err := graphs.CountSubjects(ctx, cyclePublic)
	require.NoError(t, err)
	assert.Equal(t, 1, public)
	assert.NoFileExists(t, filepath.Join(tmpDir, "f1.json"))

	records, err := history.ListIngestions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "f1", records[0].FileID)
	assert.Equal(t, IngestionStatusCompleted, records[0].Status)
	assert.Equal(t, 7, records[0].Inserts)

	// the next listing starts at the new watermark and the file at it is
	// not ingested twice
	res, err = c.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Listed)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Ingested)
	assert.Equal(t, []string{
		t0.Format(delta.SinceFormat),
		created.Format(delta.SinceFormat),
	}, cat.listedSince())
}
