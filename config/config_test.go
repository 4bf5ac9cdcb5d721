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
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "key")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, "gemini", cfg.ModelBackend)
	assert.Equal(t, "127.0.0.1:5000", cfg.Addr())
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 300*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.MaxTurns)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "duckduckgo", cfg.Search.Provider)
	assert.Equal(t, "memory", cfg.Jobs.Store)
	assert.Equal(t, time.Hour, cfg.Jobs.TTL)
	assert.Equal(t, "reports/", cfg.Archive.S3Prefix)
	assert.Equal(t, "fpdf", cfg.PDFBackend)
	assert.NoError(t, cfg.Validate())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "key")
	t.Setenv("INTELLIMARKET_PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("JOB_STORE", "postgres")
	t.Setenv("JOB_STORE_DSN", "postgres://localhost/intellimarket")
	t.Setenv("JOB_TTL", "30m")
	t.Setenv("LOG_FILE", "/var/log/intellimarket.log")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Jobs.TTL)
	assert.Equal(t, "/var/log/intellimarket.log", cfg.Log.File)
	assert.NoError(t, cfg.Validate())
}

func TestParse_InvalidValue(t *testing.T) {
	t.Setenv("INTELLIMARKET_PORT", "http")
	_, err := Parse()
	assert.ErrorContains(t, err, "can't read config")
}

func TestValidate(t *testing.T) {
	testCases := map[string]struct {
		env  map[string]string
		want []string
	}{
		"missing api key": {
			env:  map[string]string{"GOOGLE_API_KEY": ""},
			want: []string{"GOOGLE_API_KEY not found"},
		},
		"port out of range": {
			env:  map[string]string{"INTELLIMARKET_PORT": "70000"},
			want: []string{"port 70000 out of range"},
		},
		"tavily without key": {
			env:  map[string]string{"SEARCH_PROVIDER": "tavily"},
			want: []string{"TAVILY_API_KEY is required"},
		},
		"unknown backends": {
			env:  map[string]string{"MODEL_BACKEND": "llama", "PDF_BACKEND": "latex"},
			want: []string{`MODEL_BACKEND must be one of gemini, openai, got "llama"`, `PDF_BACKEND must be one of fpdf, browser, got "latex"`},
		},
		"postgres without dsn": {
			env:  map[string]string{"JOB_STORE": "postgres"},
			want: []string{"JOB_STORE_DSN is required"},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("GOOGLE_API_KEY", "key")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := Parse()
			require.NoError(t, err)

			err = cfg.Validate()
			require.Error(t, err)
			for _, want := range tc.want {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}

func TestValidate_MissingAPIKeyIsTyped(t *testing.T) {
	cfg := &Config{Port: 5000, ModelBackend: "gemini", PDFBackend: "fpdf", MaxTurns: 1,
		Log: Log{Format: "text"}, Search: Search{Provider: "duckduckgo"}, Jobs: Jobs{Store: "memory"}}
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)
	assert.NoError(t, cfg.ValidateOffline())

	cfg.Port = 0
	assert.ErrorIs(t, cfg.ValidateOffline(), ErrInvalid)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("GEMINI_MODEL=gemini-2.5-pro\nINTELLIMARKET_PORT=7000\n"), 0o600))

	// Values already in the environment win over the file.
	t.Setenv("INTELLIMARKET_PORT", "9000")
	t.Setenv("GEMINI_MODEL", "")
	require.NoError(t, os.Unsetenv("GEMINI_MODEL"))

	cfg, err := Load(file, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.Equal(t, 9000, cfg.Port)
}
