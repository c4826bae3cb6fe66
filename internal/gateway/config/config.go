package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	OutputDir   string
	TemplateDir string
	// CatalogFile optionally overrides the built-in feature catalog.
	CatalogFile string
	Workers     int
	DatabaseURL string
	// CORSOrigins restricts browser origins; empty allows any.
	CORSOrigins []string
	// ShutdownTimeout bounds how long in-flight requests may drain on stop.
	ShutdownTimeout time.Duration
	LLM             LLMConfig
	Artifact        ArtifactConfig
}

type LLMConfig struct {
	Provider string
	Model    string
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	RPS      float64
	Burst    int
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// CanUseS3 reports whether enough is configured to upload archives.
func (a ArtifactConfig) CanUseS3() bool {
	return a.Enabled && a.Endpoint != "" && a.AccessKey != "" && a.SecretKey != "" && a.Bucket != ""
}

// Load reads .env (if present), then flags from args, then environment
// variables, which win over flags.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("springforge", flag.ContinueOnError)
	port := fs.String("port", ":8000", "server port")
	outputDir := fs.String("output", "output", "directory for generated projects and archives")
	templateDir := fs.String("templates", "templates", "directory holding fallback templates")
	catalogFile := fs.String("catalog", "", "YAML file overriding the feature catalog")
	workers := fs.Int("workers", 4, "files generated in parallel per request")
	drain := fs.Duration("shutdown-timeout", 30*time.Second, "time allowed for in-flight requests on shutdown")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "dev"
	}

	cfg := &Config{
		Port:        *port,
		Env:         env,
		OutputDir:   firstNonEmpty(strings.TrimSpace(os.Getenv("OUTPUT_DIR")), *outputDir),
		TemplateDir: firstNonEmpty(strings.TrimSpace(os.Getenv("TEMPLATE_DIR")), *templateDir),
		CatalogFile: firstNonEmpty(strings.TrimSpace(os.Getenv("CATALOG_FILE")), *catalogFile),
		Workers:     *workers,
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),

		ShutdownTimeout: *drain,
	}
	if raw := strings.TrimSpace(os.Getenv("SHUTDOWN_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be a positive duration, got %q", raw)
		}
		cfg.ShutdownTimeout = d
	}
	if raw := strings.TrimSpace(os.Getenv("GENERATOR_WORKERS")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("GENERATOR_WORKERS must be a positive integer, got %q", raw)
		}
		cfg.Workers = n
	}

	llmCfg, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}
	cfg.LLM = llmCfg
	cfg.Artifact = loadArtifactConfig(env)

	if strings.EqualFold(env, "local") {
		applyLocalDefaults(cfg)
	}
	return cfg, nil
}

func loadLLMConfig() (LLMConfig, error) {
	c := LLMConfig{
		Provider: strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		Model:    strings.TrimSpace(os.Getenv("LLM_MODEL")),
		APIKey:   strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		Endpoint: strings.TrimSpace(os.Getenv("LLM_ENDPOINT")),
		Timeout:  60 * time.Second,
		RPS:      2,
		Burst:    4,
	}
	azureKey := strings.TrimSpace(os.Getenv("AZURE_OPENAI_KEY"))
	geminiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if c.Provider == "" {
		switch {
		case azureKey != "":
			c.Provider = "openai"
		case geminiKey != "" || c.APIKey != "":
			c.Provider = "gemini"
		default:
			c.Provider = "fake"
		}
	}
	switch c.Provider {
	case "openai", "azure":
		c.APIKey = firstNonEmpty(c.APIKey, azureKey)
		c.Endpoint = firstNonEmpty(c.Endpoint, strings.TrimSpace(os.Getenv("AZURE_OPENAI_ENDPOINT")))
		c.Model = firstNonEmpty(c.Model, strings.TrimSpace(os.Getenv("AZURE_OPENAI_DEPLOYMENT")))
	case "gemini":
		c.APIKey = firstNonEmpty(c.APIKey, geminiKey)
	case "groq":
		c.APIKey = firstNonEmpty(c.APIKey, strings.TrimSpace(os.Getenv("GROQ_API_KEY")))
	}

	if raw := strings.TrimSpace(os.Getenv("LLM_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return LLMConfig{}, fmt.Errorf("LLM_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if raw := strings.TrimSpace(os.Getenv("LLM_RPS")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return LLMConfig{}, fmt.Errorf("LLM_RPS: %w", err)
		}
		c.RPS = v
	}
	if raw := strings.TrimSpace(os.Getenv("LLM_BURST")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return LLMConfig{}, fmt.Errorf("LLM_BURST: %w", err)
		}
		c.Burst = v
	}
	return c, nil
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	expiry := time.Hour
	if raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_URL_EXPIRY")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			expiry = d
		}
	}
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "springforge-archives"),
		UseSSL:    resolveArtifactUseSSL(env),
		URLExpiry: expiry,
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
