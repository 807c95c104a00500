// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Store    StoreConfig             `mapstructure:"store"`
	Database DatabaseConfig          `mapstructure:"database"`
	LLM      LLMConfig               `mapstructure:"llm"`
	Pipeline PipelineConfig          `mapstructure:"pipeline"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Server   ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// Store backends understood by store.Open.
const (
	BackendMemory        = "memory"
	BackendRedis         = "redis"
	BackendPostgres      = "postgres"
	BackendSQLite        = "sqlite"
	BackendElasticsearch = "elasticsearch"
)

// StoreConfig selects the document store backing the employee collection.
type StoreConfig struct {
	Backend    string `mapstructure:"backend"`
	Collection string `mapstructure:"collection"`
	SeedFile   string `mapstructure:"seed_file"` // optional .xlsx loaded into the memory backend at startup
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	SQLite        SQLiteConfig        `mapstructure:"sqlite"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single URL, used when addresses is empty
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LLM providers understood by llm.New.
const (
	ProviderAzureOpenAI = "azure-openai"
	ProviderGemini      = "gemini"
)

// LLMConfig holds the generative-model provider settings.
type LLMConfig struct {
	Provider   string `mapstructure:"provider"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`

	AzureOpenAI struct {
		Endpoint   string `mapstructure:"endpoint"`
		Deployment string `mapstructure:"deployment"`
		APIKey     string `mapstructure:"api_key"`
		APIVersion string `mapstructure:"api_version"`
	} `mapstructure:"azure_openai"`

	Gemini struct {
		APIKey string `mapstructure:"api_key"`
		Model  string `mapstructure:"model"`
	} `mapstructure:"gemini"`
}

// GenerationConfig holds the sampling parameters of one model call.
// Temperature and TopP are pointers so an explicit 0 is distinguishable
// from an absent key.
type GenerationConfig struct {
	MaxTokens   int      `mapstructure:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature"`
	TopP        *float64 `mapstructure:"top_p"`
}

// PipelineConfig tunes the two generative stages and payload shaping.
type PipelineConfig struct {
	PayloadCap     int              `mapstructure:"payload_cap"`
	QuerySynthesis GenerationConfig `mapstructure:"query_synthesis"`
	Answer         GenerationConfig `mapstructure:"answer"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ServerConfig holds the health/metrics listener.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}
