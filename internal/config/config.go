// Package config loads snapcatalog.json5 files and assembles a
// snapcatalog.Config with concrete adapters.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// DefaultName is the config file looked up by the CLI.
const DefaultName = "snapcatalog.json5"

// File mirrors snapcatalog.json5. Secrets can be given inline or as the name
// of an environment variable (*_env); inline values win.
type File struct {
	Vision   Vision   `json:"vision"`
	Search   Search   `json:"search"`
	Places   Places   `json:"places"`
	Catalog  Catalog  `json:"catalog"`
	Maps     Maps     `json:"maps"`
	Pipeline Pipeline `json:"pipeline"`
	HTTP     HTTP     `json:"http"`
}

type Vision struct {
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Detail    string `json:"detail"`
	Prompt    string `json:"prompt"` // path to a prompt file overriding the built-in prompt
	APIKey    string `json:"api_key"`
	APIKeyEnv string `json:"api_key_env"`
}

type Search struct {
	// Providers are tried in order: "serpapi", "searxng", "duckduckgo".
	Providers  []string `json:"providers"`
	SerpAPIURL string   `json:"serpapi_url"`
	SerpAPIKey string   `json:"serpapi_key"`
	SerpKeyEnv string   `json:"serpapi_key_env"`
	SearXNGURL string   `json:"searxng_url"`
}

type Places struct {
	URL       string `json:"url"`
	APIKey    string `json:"api_key"`
	APIKeyEnv string `json:"api_key_env"`
}

type Catalog struct {
	Backend string `json:"backend"` // "notion", "sqlite" or "vault"
	Notion  Notion `json:"notion"`
	SQLite  string `json:"sqlite_path"`
	Vault   string `json:"vault_dir"`
}

type Notion struct {
	BaseURL       string `json:"base_url"`
	Token         string `json:"token"`
	TokenEnv      string `json:"token_env"`
	DatabaseID    string `json:"database_id"`
	DatabaseIDEnv string `json:"database_id_env"`
}

type Maps struct {
	WorkListDir string `json:"worklist_dir"`
	List        string `json:"list"`
}

type Pipeline struct {
	PlatformKeyword string `json:"platform_keyword"`
	LocationTarget  string `json:"location_target"` // "maps" or "catalog"
	StrictParse     bool   `json:"strict_parse"`
	Dedup           bool   `json:"dedup"`
	ImagePattern    string `json:"image_pattern"`
	MinImageWidth   int    `json:"min_image_width"`
	DedupImages     bool   `json:"dedup_images"`
}

type HTTP struct {
	TimeoutSeconds  int `json:"timeout_seconds"`
	Retries         int `json:"retries"`
	RetryWaitMillis int `json:"retry_wait_ms"`
}

// Default returns the configuration used when no file sets a value.
func Default() File {
	var f File
	f.Vision.APIKeyEnv = "OPENAI_API_KEY"
	f.Search.Providers = []string{"serpapi"}
	f.Search.SerpKeyEnv = "SERP_API_KEY"
	f.Places.APIKeyEnv = "GMAPS_API_KEY"
	f.Catalog.Backend = "notion"
	f.Catalog.Notion.TokenEnv = "NOTION_CATALOG_KEY"
	f.Catalog.Notion.DatabaseIDEnv = "NOTION_CATALOG_DB_KEY"
	f.Catalog.SQLite = "catalog.db"
	f.Catalog.Vault = "catalog"
	f.Maps.WorkListDir = "worklists"
	f.Pipeline.LocationTarget = "maps"
	f.HTTP.TimeoutSeconds = 30
	f.HTTP.Retries = 2
	f.HTTP.RetryWaitMillis = 500
	return f
}

func splitExt(f string) (string, string) {
	ext := filepath.Ext(f)
	return strings.TrimSuffix(f, ext), strings.TrimPrefix(ext, ".")
}

// Read loads name over Default(), then merges <name>.local.<ext> on top when
// present. Missing files are not an error; found reports whether any file
// was read.
//
// Merging uses mergo.WithOverride, so an override cannot reset a value back
// to its zero value (false, 0, "").
func Read(name string) (out File, found bool, err error) {
	out = Default()

	dirname := filepath.Dir(name)
	prefixname, ext := splitExt(filepath.Base(name))

	for _, path := range []string{
		name,
		filepath.Join(dirname, fmt.Sprintf("%s.local.%s", prefixname, ext)),
	} {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return out, found, err
		}

		var override File
		if err := json5.Unmarshal(data, &override); err != nil {
			return out, found, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, found, fmt.Errorf("merge %s: %w", path, err)
		}
		slog.Debug("snapcatalog: config loaded", "file", path)
		found = true
	}
	return out, found, nil
}

// secret returns the inline value, or the named environment variable.
func secret(inline, envName string, getenv func(string) string) string {
	if inline != "" {
		return inline
	}
	if envName == "" {
		return ""
	}
	return getenv(envName)
}
