// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import "github.com/pdiddy/research-orchestrator/pkg/types"

// Default returns the built-in catalog.
func Default() *Registry {
	r, err := New(builtin)
	if err != nil {
		panic(err) // the built-in table is static
	}
	return r
}

var builtin = []types.AgentProfile{
	{
		ID:           "phoenix",
		Name:         "Phoenix",
		Provider:     "FutureHouse",
		Category:     CategoryChemistry,
		Capabilities: []string{"synthesis-planning", "molecular-design", "cheminformatics"},
		Strengths:    []string{"Chemical synthesis planning", "Molecular structure analysis", "Reaction mechanism prediction"},
		Description:  "Experimental chemistry tasks using cheminformatics tools for synthesis planning and molecular design",
		Status:       "experimental",
	},
	{
		ID:           "crow",
		Name:         "Crow",
		Provider:     "FutureHouse",
		Category:     CategoryConciseSearch,
		Capabilities: []string{"literature-search", "fact-checking", "citation-verification"},
		Strengths:    []string{"Fast response times", "Accurate citations", "Concise summaries"},
		Description:  "Concise search producing succinct answers that cite scientific data sources",
		Status:       "stable",
	},
	{
		ID:           "falcon",
		Name:         "Falcon",
		Provider:     "FutureHouse",
		Category:     CategoryDeepSearch,
		Capabilities: []string{"literature-review", "hypothesis-evaluation", "report-writing"},
		Strengths:    []string{"Comprehensive analysis", "Multiple source integration", "Thorough literature coverage"},
		Description:  "Deep search producing long reports with many sources for literature reviews",
		Status:       "stable",
	},
	{
		ID:           "owl",
		Name:         "Owl",
		Provider:     "FutureHouse",
		Category:     CategoryPrecedentSearch,
		Capabilities: []string{"novelty-assessment", "prior-art", "gap-identification"},
		Strengths:    []string{"Gap identification", "Novelty assessment", "Precedent tracking"},
		Description:  "Precedent search for whether anyone has done something in science before",
		Status:       "stable",
	},
	{
		ID:           "gpt-4",
		Name:         "GPT-4",
		Provider:     "OpenAI",
		Category:     CategoryGeneralResearch,
		Capabilities: []string{"reasoning", "analysis", "synthesis"},
		Strengths:    []string{"Advanced reasoning", "Complex analysis", "Multi-domain knowledge"},
		Description:  "Advanced reasoning and analysis for general research tasks",
		Status:       "stable",
	},
	{
		ID:           "claude-3",
		Name:         "Claude-3",
		Provider:     "Anthropic",
		Category:     CategorySynthesis,
		Capabilities: []string{"synthesis", "long-context", "summarization"},
		Strengths:    []string{"Research synthesis", "Long context handling", "Academic writing"},
		Description:  "Research synthesis and comprehensive analysis across long documents",
		Status:       "stable",
	},
}
