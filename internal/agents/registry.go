// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agents holds the read-only catalog of research agents a user can
// select. Lookups never fail; an unknown id is reported with ok == false.
package agents

import (
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// Categories used by the built-in catalog.
const (
	CategoryChemistry       = "chemistry"
	CategoryConciseSearch   = "concise-search"
	CategoryDeepSearch      = "deep-search"
	CategoryPrecedentSearch = "precedent-search"
	CategoryGeneralResearch = "general-research"
	CategorySynthesis       = "synthesis"
)

// Registry is an immutable id-keyed set of agent profiles.
type Registry struct {
	byID map[string]types.AgentProfile
	ids  []string
}

// New builds a registry from profiles. Ids must be non-empty and unique.
func New(profiles []types.AgentProfile) (*Registry, error) {
	r := &Registry{byID: make(map[string]types.AgentProfile, len(profiles))}
	for _, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("agent %q has no id", p.Name)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", p.ID)
		}
		r.byID[p.ID] = clone(p)
		r.ids = append(r.ids, p.ID)
	}
	sort.Strings(r.ids)
	return r, nil
}

// catalogFile is the on-disk layout accepted by LoadFile.
type catalogFile struct {
	Agents []types.AgentProfile `yaml:"agents"`
}

// LoadFile reads a YAML agent catalog from path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading agent catalog: %w", err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing agent catalog %s: %w", path, err)
	}
	if len(cf.Agents) == 0 {
		return nil, fmt.Errorf("agent catalog %s lists no agents", path)
	}
	return New(cf.Agents)
}

// Get returns the profile for id.
func (r *Registry) Get(id string) (types.AgentProfile, bool) {
	p, ok := r.byID[id]
	if !ok {
		return types.AgentProfile{}, false
	}
	return clone(p), true
}

// List returns all profiles in the given category ordered by id. An empty
// category returns the whole catalog.
func (r *Registry) List(category string) []types.AgentProfile {
	return r.filter(func(p types.AgentProfile) bool {
		return category == "" || p.Category == category
	})
}

// ListByProvider returns the profiles served by provider, ordered by id.
func (r *Registry) ListByProvider(provider string) []types.AgentProfile {
	return r.filter(func(p types.AgentProfile) bool { return p.Provider == provider })
}

// Categories returns the distinct categories in sorted order.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range r.ids {
		c := r.byID[id].Category
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of agents.
func (r *Registry) Len() int { return len(r.ids) }

func (r *Registry) filter(keep func(types.AgentProfile) bool) []types.AgentProfile {
	var out []types.AgentProfile
	for _, id := range r.ids {
		if p := r.byID[id]; keep(p) {
			out = append(out, clone(p))
		}
	}
	return out
}

// clone copies the slice fields so callers cannot mutate the catalog.
func clone(p types.AgentProfile) types.AgentProfile {
	p.Capabilities = append([]string(nil), p.Capabilities...)
	p.Strengths = append([]string(nil), p.Strengths...)
	return p
}
