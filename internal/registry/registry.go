// Package registry resolves configured server names to connection profiles.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cms-mcp/strapi-mcp/internal/config"
)

// ConfigError is a user-actionable setup problem: either no servers are
// configured at all, or the requested name is not among them. It is never a
// crash; callers surface the message verbatim.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

// Registry holds the immutable set of named backend profiles loaded at
// startup. It is injected into the request handler, never a package global,
// so tests can substitute fixtures.
type Registry struct {
	path     string
	profiles []config.Profile
	byName   map[string]config.Profile
}

func New(configPath string, profiles []config.Profile) *Registry {
	byName := make(map[string]config.Profile, len(profiles))
	for _, p := range profiles {
		byName[p.Name] = p
	}
	return &Registry{path: configPath, profiles: profiles, byName: byName}
}

// List returns all profiles sorted by name.
func (r *Registry) List() []config.Profile {
	out := make([]config.Profile, len(r.profiles))
	copy(out, r.profiles)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ConfigPath returns the location the registry was loaded from.
func (r *Registry) ConfigPath() string { return r.path }

// Resolve looks up a profile by name. An empty registry produces setup
// guidance naming the exact config location and an example document; an
// unknown name lists the servers that do exist.
func (r *Registry) Resolve(name string) (config.Profile, error) {
	name = strings.TrimSpace(name)
	if len(r.profiles) == 0 {
		return config.Profile{}, &ConfigError{msg: fmt.Sprintf(
			"no Strapi servers are configured. Create %s with a document like:\n%s",
			r.path, config.ExampleDocument,
		)}
	}
	if p, ok := r.byName[name]; ok {
		return p, nil
	}
	known := make([]string, 0, len(r.profiles))
	for _, p := range r.List() {
		known = append(known, p.Name)
	}
	return config.Profile{}, &ConfigError{msg: fmt.Sprintf(
		"unknown server %q (configured servers: %s)", name, strings.Join(known, ", "),
	)}
}
