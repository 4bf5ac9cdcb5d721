// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package config loads the application settings from the environment,
// after reading a .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned by Validate when no model API key is set.
var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY not found in environment variables")

// ErrInvalid wraps every other validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the application configuration.
type Config struct {
	GoogleAPIKey  string `env:"GOOGLE_API_KEY"`
	Model         string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	ModelBackend  string `env:"MODEL_BACKEND" envDefault:"gemini"` // gemini | openai
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`

	SecretKey   string   `env:"SECRET_KEY" envDefault:"dev-secret-key-change-in-production"`
	Debug       bool     `env:"INTELLIMARKET_DEBUG" envDefault:"false"`
	Host        string   `env:"INTELLIMARKET_HOST" envDefault:"127.0.0.1"`
	Port        int      `env:"INTELLIMARKET_PORT" envDefault:"5000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`

	MaxRetries int           `env:"MAX_RETRIES" envDefault:"3"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"300s"`
	MaxTurns   int           `env:"MAX_TURNS" envDefault:"10"`

	PDFBackend string `env:"PDF_BACKEND" envDefault:"fpdf"` // fpdf | browser

	Log       Log
	Search    Search
	Jobs      Jobs
	Archive   Archive
	Traceloop Traceloop
}

// Log configures the process logger.
type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"INFO"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // text | json
	// Optional file, rotated when it reaches MaxSize megabytes.
	File       string `env:"LOG_FILE"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"28"` // days
	LocalTime  bool   `env:"LOG_LOCAL_TIME" envDefault:"false"`
}

type Search struct {
	Provider     string `env:"SEARCH_PROVIDER" envDefault:"duckduckgo"` // duckduckgo | tavily
	TavilyAPIKey string `env:"TAVILY_API_KEY"`
}

type Jobs struct {
	Store string        `env:"JOB_STORE" envDefault:"memory"` // memory | sqlite | postgres
	DSN   string        `env:"JOB_STORE_DSN"`
	TTL   time.Duration `env:"JOB_TTL" envDefault:"1h"`
}

// Archive configures where rendered reports are kept. Dir takes precedence
// over S3Bucket; with neither, reports are not archived.
type Archive struct {
	Dir               string `env:"ARCHIVE_DIR"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Prefix          string `env:"S3_PREFIX" envDefault:"reports/"`
	S3PathStyle       bool   `env:"S3_PATH_STYLE" envDefault:"false"`
}

type Traceloop struct {
	APIKey  string `env:"TRACELOOP_API_KEY"`
	BaseURL string `env:"TRACELOOP_BASE_URL"`
}

// Load reads the given env files, or ".env" when none is given, and then
// parses the environment. Missing files are ignored, and variables already
// set in the environment win over the files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("can't read config: %w", err)
	}
	cfg.CORSOrigins = slices.DeleteFunc(trimAll(cfg.CORSOrigins), func(s string) bool { return s == "" })
	return &cfg, nil
}

func trimAll(ss []string) []string {
	for i, s := range ss {
		ss[i] = strings.TrimSpace(s)
	}
	return ss
}

// Validate checks the settings needed to serve requests.
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateOffline checks the settings of commands that never call a model,
// so the API key may be missing.
func (c *Config) ValidateOffline() error {
	return c.validate(false)
}

func (c *Config) validate(requireKey bool) error {
	var errs []error
	if requireKey && c.GoogleAPIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Port))
	}
	check := func(name, value string, allowed ...string) {
		if !slices.Contains(allowed, value) {
			errs = append(errs, fmt.Errorf("%w: %s must be one of %s, got %q",
				ErrInvalid, name, strings.Join(allowed, ", "), value))
		}
	}
	check("MODEL_BACKEND", c.ModelBackend, "gemini", "openai")
	check("SEARCH_PROVIDER", c.Search.Provider, "duckduckgo", "tavily")
	check("JOB_STORE", c.Jobs.Store, "memory", "sqlite", "postgres")
	check("PDF_BACKEND", c.PDFBackend, "fpdf", "browser")
	check("LOG_FORMAT", strings.ToLower(c.Log.Format), "text", "json")

	if c.Search.Provider == "tavily" && c.Search.TavilyAPIKey == "" {
		errs = append(errs, fmt.Errorf("%w: TAVILY_API_KEY is required by the tavily search provider", ErrInvalid))
	}
	if c.Jobs.Store == "postgres" && c.Jobs.DSN == "" {
		errs = append(errs, fmt.Errorf("%w: JOB_STORE_DSN is required by the postgres job store", ErrInvalid))
	}
	if c.MaxTurns < 1 {
		errs = append(errs, fmt.Errorf("%w: MAX_TURNS must be positive", ErrInvalid))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
