// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AgentProfile describes a named research agent the user can select.
type AgentProfile struct {
	// ID is the unique registry key (e.g. "crow").
	ID string `json:"id" yaml:"id"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// Provider is the service that runs the agent (e.g. "FutureHouse").
	Provider string `json:"provider" yaml:"provider"`

	// Category groups agents that issue the same provider call.
	Category string `json:"category" yaml:"category"`

	// Capabilities are free-form capability tags.
	Capabilities []string `json:"capabilities" yaml:"capabilities"`

	// Strengths lists what the agent is good at, for display.
	Strengths []string `json:"strengths,omitempty" yaml:"strengths,omitempty"`

	Description string `json:"description" yaml:"description"`

	// Status is "stable" or "experimental".
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
}
