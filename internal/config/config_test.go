package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/config"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
managers:
  default:
    index_name: catalog
    mapping:
      settings:
        number_of_shards: 1
      mappings:
        properties:
          sku:
            type: keyword
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", minimalConfig)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "index-rotator", cfg.Service.Name)
	assert.Equal(t, "http://localhost:9200", cfg.Elasticsearch.URL)
	assert.Equal(t, 3, cfg.Elasticsearch.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Elasticsearch.Timeout)
	assert.Equal(t, 5, cfg.Elasticsearch.Retry.MaxAttempts)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "-", cfg.Naming.Separator)
	assert.Equal(t, "20060102150405.000000", cfg.Naming.TimeFormat)
	assert.Equal(t, 100, cfg.Naming.MaxAttempts)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 5432, cfg.History.Port)
	assert.Equal(t, "index-rotator", cfg.Metrics.Job)
	assert.Equal(t, []string{"default"}, cfg.ManagerNames())
}

func TestLoad_FileValues(t *testing.T) {
	content := `
elasticsearch:
  url: https://search.internal:9200
  timeout: 10s
  tls:
    insecure_skip_verify: true
  retry:
    max_attempts: 2
    initial_delay: 100ms
naming:
  separator: _
logging:
  level: debug
  format: console
managers:
  default:
    index_name: catalog
`
	path := writeFile(t, t.TempDir(), "config.yml", content)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	es := cfg.ElasticsearchClientConfig()
	assert.Equal(t, "https://search.internal:9200", es.URL)
	assert.Equal(t, 10*time.Second, es.Timeout)
	assert.True(t, es.InsecureSkipVerify)
	assert.Equal(t, 2, es.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, es.Retry.InitialDelay)
	assert.Equal(t, "_", cfg.Naming.Separator)
	assert.Equal(t, "console", cfg.LoggerConfig(false).Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ELASTICSEARCH_URL", "http://es-from-env:9200")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("INDEX_ROTATOR_HISTORY_ENABLED", "yes")
	t.Setenv("POSTGRES_INDEX_ROTATOR_PORT", "6543")
	t.Setenv("METRICS_PUSHGATEWAY_URL", "http://pushgateway:9091")

	path := writeFile(t, t.TempDir(), "config.yml", minimalConfig)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://es-from-env:9200", cfg.Elasticsearch.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 6543, cfg.DatabaseConfig().Port)
	assert.Equal(t, "http://pushgateway:9091", cfg.Metrics.PushgatewayURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "no managers",
			content: "logging:\n  level: info\n",
			field:   "managers",
		},
		{
			name:    "missing index name",
			content: "managers:\n  default:\n    mapping_file: catalog.json\n",
			field:   "managers.default.index_name",
		},
		{
			name:    "uppercase index name",
			content: "managers:\n  default:\n    index_name: Catalog\n",
			field:   "managers.default.index_name",
		},
		{
			name:    "index name with leading underscore",
			content: "managers:\n  default:\n    index_name: _catalog\n",
			field:   "managers.default.index_name",
		},
		{
			name: "mapping and mapping file",
			content: "managers:\n  default:\n    index_name: catalog\n    mapping_file: catalog.json\n" +
				"    mapping:\n      mappings: {}\n",
			field: "managers.default",
		},
		{
			name:    "bad log level",
			content: "logging:\n  level: loud\n" + minimalConfig,
			field:   "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yml", tt.content)

			_, err := config.Load(path)
			require.Error(t, err)

			var validationErr *config.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoggerConfig_DebugFlag(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", minimalConfig)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LoggerConfig(false).Level)
	assert.Equal(t, "debug", cfg.LoggerConfig(true).Level)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, config.DefaultPath, config.GetConfigPath(config.DefaultPath))

	t.Setenv("CONFIG_PATH", "/etc/index-rotator/config.yml")
	assert.Equal(t, "/etc/index-rotator/config.yml", config.GetConfigPath(config.DefaultPath))
}

func TestBuildRegistry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products.json", `{"mappings":{"properties":{"name":{"type":"text"}}}}`)
	content := minimalConfig + `
  products:
    index_name: products
    mapping_file: products.json
  bare:
    index_name: bare
`
	path := writeFile(t, dir, "config.yml", content)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	registry, err := config.BuildRegistry(cfg, testutils.NewFakeEngine())
	require.NoError(t, err)

	catalog, err := registry.Get("default")
	require.NoError(t, err)
	assert.Equal(t, "catalog", catalog.BaseName())
	assert.Equal(t, "catalog", catalog.IndexName())
	assert.Contains(t, catalog.Mapping(), "mappings")

	products, err := registry.Get("products")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{"name": map[string]any{"type": "text"}},
		},
	}, products.Mapping())

	bare, err := registry.Get("bare")
	require.NoError(t, err)
	assert.Empty(t, bare.Mapping())

	_, err = registry.Get("missing")
	require.ErrorIs(t, err, config.ErrUnknownManager)
}

func TestBuildRegistry_BadMappingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "catalog.json", `[1, 2, 3]`)
	path := writeFile(t, dir, "config.yml", "managers:\n  default:\n    index_name: catalog\n    mapping_file: catalog.json\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	_, err = config.BuildRegistry(cfg, testutils.NewFakeEngine())
	var validationErr *config.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestBuildRegistry_MissingMappingFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "managers:\n  default:\n    index_name: catalog\n    mapping_file: nope.json\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	_, err = config.BuildRegistry(cfg, testutils.NewFakeEngine())
	require.ErrorIs(t, err, os.ErrNotExist)
}
