// Package am loads the consumer's configuration: TOML files merged in
// precedence order, DELTA_* environment variables on top, then defaults.
package am

// Config represents the delta consumer configuration
type Config struct {
	Ingest   IngestConfig   `mapstructure:"ingest" toml:"ingest"`
	Sync     SyncConfig     `mapstructure:"sync" toml:"sync"`
	Graphs   GraphsConfig   `mapstructure:"graphs" toml:"graphs"`
	Store    StoreConfig    `mapstructure:"store" toml:"store"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Routing  RoutingConfig  `mapstructure:"routing" toml:"routing"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
}

// IngestConfig configures the polling loop and the per-file pipeline
type IngestConfig struct {
	IntervalSeconds int    `mapstructure:"interval_seconds" toml:"interval_seconds"` // <= 0 = manual only
	BatchSize       int    `mapstructure:"batch_size" toml:"batch_size"`             // triples per insert
	OnFailure       string `mapstructure:"on_failure" toml:"on_failure"`             // abort | continue
	TmpDir          string `mapstructure:"tmp_dir" toml:"tmp_dir"`                   // transient delta file copies
}

// SyncConfig configures the remote delta file catalog
type SyncConfig struct {
	BaseURL              string  `mapstructure:"base_url" toml:"base_url"`
	FilesPath            string  `mapstructure:"files_path" toml:"files_path"`
	DownloadPath         string  `mapstructure:"download_path" toml:"download_path"` // ":id" is replaced by the file id
	TimeoutSeconds       int     `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
	MaxRequestsPerSecond float64 `mapstructure:"max_requests_per_second" toml:"max_requests_per_second"` // 0 = unpaced
	MaxRedirects         int     `mapstructure:"max_redirects" toml:"max_redirects"`
	BlockPrivateIP       bool    `mapstructure:"block_private_ip" toml:"block_private_ip"` // refuse loopback/private targets
}

// GraphsConfig names the graphs data moves through
type GraphsConfig struct {
	Public             string `mapstructure:"public" toml:"public"`
	Staging            string `mapstructure:"staging" toml:"staging"`
	OrganizationPrefix string `mapstructure:"organization_prefix" toml:"organization_prefix"`
}

// StoreConfig selects and configures the graph store backend
type StoreConfig struct {
	Backend        string `mapstructure:"backend" toml:"backend"` // sparql | sqlite
	Endpoint       string `mapstructure:"endpoint" toml:"endpoint"`
	Sudo           bool   `mapstructure:"sudo" toml:"sudo"` // send mu-auth-sudo
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
}

// Store backends
const (
	BackendSPARQL = "sparql"
	BackendSQLite = "sqlite"
)

// DatabaseConfig configures the SQLite database holding the watermark,
// the ingestion history and, for the sqlite backend, the quads
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// RoutingConfig is the routing rule table. Public types are evaluated
// first, in order, then the owned rules.
type RoutingConfig struct {
	PublicTypes []string          `mapstructure:"public_types" toml:"public_types"`
	Owned       []OwnedRuleConfig `mapstructure:"owned" toml:"owned"`
}

// OwnedRuleConfig routes subjects of Type to the graph of the organization
// reached through Path. Inverse steps are written "^<iri>".
type OwnedRuleConfig struct {
	Type string   `mapstructure:"type" toml:"type"`
	Path []string `mapstructure:"path" toml:"path"`
}

// LogConfig configures logging output
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
