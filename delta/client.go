package delta

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/internal/httpclient"
	"github.com/teranos/deltaconsumer/logger"
	"github.com/teranos/deltaconsumer/rdf"
)

// Defaults for Config fields left empty.
const (
	DefaultBaseURL      = "https://mandaten.lblod.info"
	DefaultFilesPath    = "/sync/mandatarissen/files"
	DefaultDownloadPath = "/files/:id/download"
)

// SinceFormat is the timestamp layout of the since parameter: UTC with
// millisecond precision.
const SinceFormat = "2006-01-02T15:04:05.000Z07:00"

// Config configures a Client.
type Config struct {
	BaseURL      string
	FilesPath    string
	DownloadPath string // template, IDPlaceholder is replaced by the file id
	TmpDir       string // transient copies; os.TempDir() when empty
}

// Client talks to the sync endpoint.
type Client struct {
	http   *httpclient.Client
	cfg    Config
	logger *zap.SugaredLogger
}

// NewClient creates a Client, filling empty config fields with defaults.
func NewClient(cfg Config, client *httpclient.Client, log *zap.SugaredLogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.FilesPath == "" {
		cfg.FilesPath = DefaultFilesPath
	}
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = DefaultDownloadPath
	}
	if cfg.TmpDir == "" {
		cfg.TmpDir = os.TempDir()
	}
	return &Client{http: client, cfg: cfg, logger: logger.OrNop(log)}
}

// DownloadURL returns where f is downloaded from.
func (c *Client) DownloadURL(f File) string {
	return f.DownloadURL(c.cfg.BaseURL, c.cfg.DownloadPath)
}

// TempPath returns the transient local path of f.
func (c *Client) TempPath(f File) string {
	return f.TempPath(c.cfg.TmpDir)
}

// listing is the JSON:API document returned by the files endpoint.
type listing struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Created string `json:"created"`
			Name    string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
}

// ListUnconsumed returns the files created at or after since, in the order
// the catalog lists them. The call is not retried.
func (c *Client) ListUnconsumed(ctx context.Context, since time.Time) ([]File, error) {
	u, err := url.Parse(strings.TrimSuffix(c.cfg.BaseURL, "/") + c.cfg.FilesPath)
	if err != nil {
		return nil, errors.Parse(err, "build listing URL")
	}
	q := u.Query()
	q.Set("since", since.UTC().Format(SinceFormat))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Transport(err, "build listing request")
	}
	req.Header.Set("Accept", "application/vnd.api+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Transport(
			errors.WithHint(err, "check that sync.base_url is reachable"),
			"list delta files")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, errors.Transport(err, "list delta files")
	}

	var doc listing
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Parse(err, "decode delta file listing")
	}

	files := make([]File, 0, len(doc.Data))
	for i, d := range doc.Data {
		if d.ID == "" {
			return nil, errors.Parse(errors.Newf("entry %d has no id", i), "decode delta file listing")
		}
		if err := (File{ID: d.ID}).ValidateID(); err != nil {
			return nil, errors.Parsef(err, "entry %d", i)
		}
		created, err := time.Parse(time.RFC3339Nano, d.Attributes.Created)
		if err != nil {
			return nil, errors.Parsef(err, "created time of delta file %s", d.ID)
		}
		files = append(files, File{ID: d.ID, Created: created, Name: d.Attributes.Name})
	}

	c.logger.Debugw("Listed delta files",
		logger.FieldSince, since,
		logger.FieldCount, len(files))
	return files, nil
}

// Download streams f to its transient path. On failure a partially written
// copy is left in place.
func (c *Client) Download(ctx context.Context, f File) error {
	if err := f.ValidateID(); err != nil {
		return errors.Parse(err, "download delta file")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(f), nil)
	if err != nil {
		return errors.Transportf(err, "build download request for %s", f.ID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Transportf(err, "download delta file %s", f.ID)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return errors.Transportf(err, "download delta file %s", f.ID)
	}

	path := c.TempPath(f)
	out, err := os.Create(path)
	if err != nil {
		return errors.Transportf(err, "create %s", path)
	}
	n, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Transportf(err, "write delta file %s to %s", f.ID, path)
	}

	c.logger.Debugw("Downloaded delta file",
		logger.FieldFileID, f.ID,
		logger.FieldURL, c.DownloadURL(f),
		logger.FieldPath, path,
		"bytes", n,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return nil
}

// ReadChangeSets decodes the transient copy of f.
func (c *Client) ReadChangeSets(f File) ([]rdf.ChangeSet, error) {
	in, err := os.Open(c.TempPath(f))
	if err != nil {
		return nil, errors.Parsef(err, "open delta file %s", f.ID)
	}
	defer in.Close()

	changeSets, err := rdf.DecodeChangeSets(in)
	if err != nil {
		return nil, errors.Wrapf(err, "delta file %s", f.ID)
	}
	return changeSets, nil
}

// Remove deletes the transient copy of f. A missing copy is not an error.
func (c *Client) Remove(f File) error {
	if err := os.Remove(c.TempPath(f)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove transient copy of %s", f.ID)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return errors.WithDetail(
		errors.Newf("%s %s returned %s", resp.Request.Method, resp.Request.URL.Path, resp.Status),
		strings.TrimSpace(string(body)))
}
