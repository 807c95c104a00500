package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
llm:
  provider: gemini
  gemini:
    api_key: test-key
workers:
  synthesize-query:
    enabled: true
`

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "workforce-analyst", cfg.App.Name)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "employees", cfg.Store.Collection)
	assert.Equal(t, 25, cfg.Pipeline.PayloadCap)
	assert.Equal(t, GenerationConfig{MaxTokens: 200, Temperature: f64(0.1), TopP: f64(0.9)}, cfg.Pipeline.QuerySynthesis)
	assert.Equal(t, GenerationConfig{MaxTokens: 1000, Temperature: f64(0.3), TopP: f64(0.9)}, cfg.Pipeline.Answer)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Gemini.Model)

	w := cfg.Workers["synthesize-query"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_ExplicitZeroTemperature(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML+`
pipeline:
  query_synthesis:
    temperature: 0
  answer:
    max_tokens: 600
    temperature: 0
    top_p: 1
`))
	require.NoError(t, err)

	assert.Equal(t, GenerationConfig{MaxTokens: 200, Temperature: f64(0), TopP: f64(0.9)}, cfg.Pipeline.QuerySynthesis)
	assert.Equal(t, GenerationConfig{MaxTokens: 600, Temperature: f64(0), TopP: f64(1)}, cfg.Pipeline.Answer)
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_AZURE_ENDPOINT", "https://example.openai.azure.com")
	path := writeConfig(t, `
llm:
  provider: azure-openai
  azure_openai:
    endpoint: ${TEST_AZURE_ENDPOINT}
    deployment: gpt-4o
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.openai.azure.com", cfg.LLM.AzureOpenAI.Endpoint)
	assert.Equal(t, "2024-10-21", cfg.LLM.AzureOpenAI.APIVersion)
}

func TestLoadFromFile_SecretFallback(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://fallback.openai.azure.com")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT", "gpt-4o-mini")
	t.Setenv("AZURE_OPENAI_KEY", "secret")

	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: analyst\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://fallback.openai.azure.com", cfg.LLM.AzureOpenAI.Endpoint)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.AzureOpenAI.Deployment)
	assert.Equal(t, "secret", cfg.LLM.AzureOpenAI.APIKey)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown backend",
			yaml:    minimalYAML + "store:\n  backend: mongo\n",
			wantErr: `unknown store.backend "mongo"`,
		},
		{
			name:    "redis without address",
			yaml:    minimalYAML + "store:\n  backend: redis\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "postgres without host",
			yaml:    minimalYAML + "store:\n  backend: postgres\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "elasticsearch without addresses",
			yaml:    minimalYAML + "store:\n  backend: elasticsearch\n",
			wantErr: "database.elasticsearch.addresses or url is required",
		},
		{
			name:    "camunda without broker",
			yaml:    minimalYAML + "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "unknown provider",
			yaml:    "llm:\n  provider: local\n",
			wantErr: `unknown llm.provider "local"`,
		},
		{
			name:    "negative payload cap",
			yaml:    minimalYAML + "pipeline:\n  payload_cap: -1\n",
			wantErr: "pipeline.payload_cap must be positive",
		},
		{
			name:    "temperature out of range",
			yaml:    minimalYAML + "pipeline:\n  answer:\n    temperature: 2.5\n",
			wantErr: "pipeline.answer.temperature must be within [0, 2]",
		},
		{
			name:    "zero top_p",
			yaml:    minimalYAML + "pipeline:\n  query_synthesis:\n    top_p: 0\n",
			wantErr: "pipeline.query_synthesis.top_p must be within (0, 1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestElasticsearchURL(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML+`
store:
  backend: elasticsearch
database:
  elasticsearch:
    url: http://es:9200
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://es:9200"}, cfg.Database.Elasticsearch.Addresses)
	assert.Equal(t, "http://es:9200", cfg.Database.Elasticsearch.GetURL())
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"shape-payload": {Enabled: false, Timeout: 10000},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "shape-payload"))
	assert.True(t, IsWorkerEnabled(cfg, "retrieve-records"))
	assert.Equal(t, 30000, GetWorkerConfig(cfg, "retrieve-records").Timeout)
	assert.Equal(t, 10*time.Second, GetDuration(GetWorkerConfig(cfg, "shape-payload").Timeout))
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "analyst", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=analyst sslmode=disable", p.GetDSN())
}
