// Package config loads the server-profile document that names the Strapi
// backends this bridge may dispatch to.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultVersion = "v4"

// ExampleDocument is shown to users whose configuration is missing or empty.
const ExampleDocument = `{
  "myserver": {
    "api_url": "http://localhost:1337",
    "api_key": "your-jwt-token-from-strapi-admin",
    "version": "v4"
  }
}`

// Profile is one named backend connection: base URL, bearer credential, and
// an optional version tag. Immutable after load.
type Profile struct {
	Name    string `json:"-" yaml:"-"`
	BaseURL string `json:"api_url" yaml:"api_url"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

func DefaultConfigPath() string {
	if envPath := strings.TrimSpace(os.Getenv("STRAPI_MCP_CONFIG")); envPath != "" {
		return envPath
	}
	return filepath.Join(homeDir(), ".mcp", "strapi-mcp-server.config.json")
}

func homeDir() string {
	if home := strings.TrimSpace(os.Getenv("HOME")); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// Load reads the profile document at path. A missing file is not an error:
// the registry simply starts empty and server-scoped tools report setup
// guidance instead. The canonical format is JSON; a .yaml/.yml sibling is
// accepted when the JSON document is absent.
func Load(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if alt, altData, ok := yamlSibling(path); ok {
			return parse(alt, altData)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parse(path, data)
}

func yamlSibling(path string) (string, []byte, bool) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return "", nil, false
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".yaml", ".yml"} {
		data, err := os.ReadFile(base + ext)
		if err == nil {
			return base + ext, data, true
		}
	}
	return "", nil, false
}

func parse(path string, data []byte) ([]Profile, error) {
	byName := map[string]Profile{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&byName); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&byName); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	profiles := make([]Profile, 0, len(byName))
	for name, p := range byName {
		p.Name = strings.TrimSpace(name)
		p.BaseURL = strings.TrimRight(os.ExpandEnv(strings.TrimSpace(p.BaseURL)), "/")
		p.APIKey = os.ExpandEnv(strings.TrimSpace(p.APIKey))
		if p.Version == "" {
			p.Version = DefaultVersion
		}
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

func validate(p Profile) error {
	if p.Name == "" {
		return fmt.Errorf("server name is required")
	}
	if p.BaseURL == "" {
		return fmt.Errorf("server %q: api_url is required", p.Name)
	}
	parsed, err := url.Parse(p.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("server %q: api_url %q is not an absolute URL", p.Name, p.BaseURL)
	}
	if p.APIKey == "" {
		return fmt.Errorf("server %q: api_key is required", p.Name)
	}
	return nil
}
