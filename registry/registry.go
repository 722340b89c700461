// Package registry is the Brain's static tool whitelist: a compile-time
// map from tool identifier to the collaborator subsystem that serves it
// and the parameters a valid invocation must supply. The validator
// consults it to reject unknown tools; the executor consults it to
// dispatch; the planner renders it into the LLM's system prompt.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Destination tags the collaborator subsystem a tool is routed to.
type Destination string

const (
	DestinationMemory Destination = "memory"
	DestinationRAG    Destination = "rag"
	DestinationClient Destination = "client"
	DestinationOps    Destination = "ops"
)

// Entry describes one whitelisted tool.
type Entry struct {
	Destination    Destination
	RequiredParams []string
	Description    string
}

// Registry is a process-wide, read-only lookup table of ToolId -> Entry.
type Registry struct {
	entries map[string]Entry
}

// defaultEntries mirrors the tool set the original planner/executor speak:
// RAG and memory lookups, filesystem actions routed through the client
// executor, and a system-stat/ops category.
func defaultEntries() map[string]Entry {
	return map[string]Entry{
		"RAG_SEARCH": {
			Destination:    DestinationRAG,
			RequiredParams: []string{"query"},
			Description:    "Search the retrieval corpus for relevant passages.",
		},
		"MEMORY_GET": {
			Destination:    DestinationMemory,
			RequiredParams: []string{},
			Description:    "Fetch stored identity and preference facts.",
		},
		"MEMORY_PUT": {
			Destination:    DestinationMemory,
			RequiredParams: []string{"content"},
			Description:    "Persist a new fact to long-term memory.",
		},
		"FS_LIST": {
			Destination:    DestinationClient,
			RequiredParams: []string{},
			Description:    "List files in the user's workspace.",
		},
		"FS_READ": {
			Destination:    DestinationClient,
			RequiredParams: []string{"path"},
			Description:    "Read a file's contents.",
		},
		"FS_OPEN": {
			Destination:    DestinationClient,
			RequiredParams: []string{"path"},
			Description:    "Open a file or application.",
		},
		"FS_MOVE": {
			Destination:    DestinationClient,
			RequiredParams: []string{"source", "destination"},
			Description:    "Move or rename a file.",
		},
		"FS_DELETE": {
			Destination:    DestinationClient,
			RequiredParams: []string{"path"},
			Description:    "Delete a single file.",
		},
		"FS_RUN": {
			Destination:    DestinationClient,
			RequiredParams: []string{"command"},
			Description:    "Run a whitelisted shell command.",
		},
		"SYS_STAT": {
			Destination:    DestinationOps,
			RequiredParams: []string{},
			Description:    "Report host resource utilization.",
		},
		"DELETE_ALL_DISKS": {
			Destination:    DestinationOps,
			RequiredParams: []string{},
			Description:    "Irrecoverably wipe attached storage. Always DENY.",
		},
		"FORMAT_SYSTEM": {
			Destination:    DestinationOps,
			RequiredParams: []string{},
			Description:    "Reformat the host filesystem. Always DENY.",
		},
	}
}

// New builds a Registry from the compiled-in defaults, optionally merging
// an override file's entries over them (override entries with the same
// tool id win, additional ids are appended).
func New(overridePath string) (*Registry, error) {
	entries := defaultEntries()

	if overridePath != "" {
		overrides, err := loadOverrides(overridePath)
		if err != nil {
			return nil, fmt.Errorf("registry: loading overrides from %s: %w", overridePath, err)
		}
		for id, e := range overrides {
			entries[id] = e
		}
	}

	return &Registry{entries: entries}, nil
}

type overrideFile struct {
	Tools map[string]struct {
		Destination    string   `yaml:"destination"`
		RequiredParams []string `yaml:"required_params"`
		Description    string   `yaml:"description"`
	} `yaml:"tools"`
}

func loadOverrides(path string) (map[string]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f overrideFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	out := make(map[string]Entry, len(f.Tools))
	for id, t := range f.Tools {
		out[id] = Entry{
			Destination:    Destination(t.Destination),
			RequiredParams: t.RequiredParams,
			Description:    t.Description,
		}
	}
	return out, nil
}

// Lookup returns the entry for toolID and whether it is registered.
func (r *Registry) Lookup(toolID string) (Entry, bool) {
	e, ok := r.entries[toolID]
	return e, ok
}

// Known reports whether toolID is present in the whitelist.
func (r *Registry) Known(toolID string) bool {
	_, ok := r.entries[toolID]
	return ok
}

// Summary renders a compact, deterministically ordered textual listing of
// every registered tool for embedding into the planner's system prompt,
// mirroring the source's get_tool_prompt() helper.
func (r *Registry) Summary() string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		e := r.entries[id]
		params := "none"
		if len(e.RequiredParams) > 0 {
			params = strings.Join(e.RequiredParams, ", ")
		}
		fmt.Fprintf(&b, "- %s (%s): %s [params: %s]\n", id, e.Destination, e.Description, params)
	}
	return b.String()
}
