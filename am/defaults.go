package am

import (
	"time"

	"github.com/spf13/viper"

	"github.com/teranos/deltaconsumer/delta"
	"github.com/teranos/deltaconsumer/ingest"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ingest.interval_seconds", 60)
	v.SetDefault("ingest.batch_size", ingest.DefaultBatchSize)
	v.SetDefault("ingest.on_failure", "abort")
	v.SetDefault("ingest.tmp_dir", "/tmp")

	v.SetDefault("sync.base_url", delta.DefaultBaseURL)
	v.SetDefault("sync.files_path", delta.DefaultFilesPath)
	v.SetDefault("sync.download_path", delta.DefaultDownloadPath)
	v.SetDefault("sync.timeout_seconds", 300)
	v.SetDefault("sync.max_requests_per_second", 0)
	v.SetDefault("sync.max_redirects", 10)
	v.SetDefault("sync.block_private_ip", false)

	v.SetDefault("graphs.public", ingest.DefaultPublicGraph)
	v.SetDefault("graphs.staging", ingest.DefaultStagingGraph)
	v.SetDefault("graphs.organization_prefix", ingest.DefaultOrganizationPrefix)

	v.SetDefault("store.backend", BackendSPARQL)
	v.SetDefault("store.endpoint", "http://database:8890/sparql")
	v.SetDefault("store.sudo", true)
	v.SetDefault("store.timeout_seconds", 300)

	v.SetDefault("database.path", "deltaconsumer.db")

	routing := routingFromRules(ingest.DefaultRules())
	v.SetDefault("routing.public_types", routing.PublicTypes)
	owned := make([]map[string]interface{}, 0, len(routing.Owned))
	for _, o := range routing.Owned {
		owned = append(owned, map[string]interface{}{"type": o.Type, "path": o.Path})
	}
	v.SetDefault("routing.owned", owned)

	v.SetDefault("log.json", false)
}

// BindLegacyEnvVars binds the environment variable names of the mu-semtech
// consumer service, so existing deployments keep working
func BindLegacyEnvVars(v *viper.Viper) {
	v.BindEnv("sync.base_url", "DELTA_SYNC_BASE_URL", "SYNC_BASE_URL")
	v.BindEnv("sync.files_path", "DELTA_SYNC_FILES_PATH", "SYNC_FILES_PATH")
	v.BindEnv("sync.download_path", "DELTA_SYNC_DOWNLOAD_PATH", "DOWNLOAD_FILE_PATH")
	v.BindEnv("ingest.batch_size", "DELTA_INGEST_BATCH_SIZE", "BATCH_SIZE")
	v.BindEnv("graphs.public", "DELTA_GRAPHS_PUBLIC", "PUBLIC_GRAPH")
	v.BindEnv("graphs.staging", "DELTA_GRAPHS_STAGING", "TMP_INGEST_GRAPH")
	v.BindEnv("store.endpoint", "DELTA_STORE_ENDPOINT", "MU_SPARQL_ENDPOINT")
}

// Interval returns the polling interval; zero means manual only
func (c *Config) Interval() time.Duration {
	if c.Ingest.IntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Ingest.IntervalSeconds) * time.Second
}

// SyncTimeout returns the timeout for one listing or download request
func (c *Config) SyncTimeout() time.Duration {
	return time.Duration(c.Sync.TimeoutSeconds) * time.Second
}

// StoreTimeout returns the timeout for one store operation
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Store.TimeoutSeconds) * time.Second
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return "deltaconsumer.db" // Fallback default
	}
	return c.Database.Path
}
