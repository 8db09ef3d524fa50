// Package rules holds the workflow rules table: the statuses reachable from
// each status and the roles allowed to take each move.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"landrec/internal/workflow/models"
)

//go:embed rules.yaml
var defaultRules []byte

// Office roles.
const (
	RoleClerk       = "clerk"
	RoleRecorder    = "recorder"
	RoleLegal       = "legal"
	RoleSupervisor  = "supervisor"
	RoleSigner      = "signer"
	RoleControlDesk = "control_desk"
)

var knownRoles = []string{RoleClerk, RoleRecorder, RoleLegal, RoleSupervisor, RoleSigner, RoleControlDesk}

// Transition is one allowed move.
type Transition struct {
	From             models.Status
	To               models.Status
	Roles            []string
	RequiresAssignee bool
}

// Permits reports whether any of roles may take the move.
func (t Transition) Permits(roles []string) bool {
	for _, r := range roles {
		if r == RoleSupervisor || slices.Contains(t.Roles, r) {
			return true
		}
	}
	return false
}

type entry struct {
	From             models.Status   `yaml:"from"`
	To               []models.Status `yaml:"to"`
	Roles            []string        `yaml:"roles"`
	RequiresAssignee bool            `yaml:"requires_assignee"`
}

type document struct {
	Rules []entry `yaml:"rules"`
}

// Table is immutable after Load.
type Table struct {
	edges map[models.Status]map[models.Status]Transition
}

// Default returns the embedded table.
func Default() (*Table, error) {
	return Parse(defaultRules)
}

// Load reads a rules file, or the embedded default when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow rules: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a rules document.
func Parse(raw []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode workflow rules: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("workflow rules are empty")
	}

	t := &Table{edges: make(map[models.Status]map[models.Status]Transition)}
	for _, e := range doc.Rules {
		if !e.From.IsValid() {
			return nil, fmt.Errorf("workflow rule from unknown status %q", e.From)
		}
		if e.From == models.StatusDeleted || e.From == models.StatusArchived {
			return nil, fmt.Errorf("workflow rule leaves final status %q", e.From)
		}
		if len(e.Roles) == 0 {
			return nil, fmt.Errorf("workflow rule from %q names no roles", e.From)
		}
		for _, r := range e.Roles {
			if !slices.Contains(knownRoles, r) {
				return nil, fmt.Errorf("workflow rule from %q: unknown role %q", e.From, r)
			}
		}
		if t.edges[e.From] == nil {
			t.edges[e.From] = make(map[models.Status]Transition)
		}
		for _, to := range e.To {
			if !to.IsValid() {
				return nil, fmt.Errorf("workflow rule %q -> unknown status %q", e.From, to)
			}
			if to == e.From {
				return nil, fmt.Errorf("workflow rule loops on %q", e.From)
			}
			if _, dup := t.edges[e.From][to]; dup {
				return nil, fmt.Errorf("duplicate workflow rule %q -> %q", e.From, to)
			}
			t.edges[e.From][to] = Transition{
				From:             e.From,
				To:               to,
				Roles:            slices.Clone(e.Roles),
				RequiresAssignee: e.RequiresAssignee,
			}
		}
	}
	return t, nil
}

// Lookup returns the move from -> to when the table declares it.
func (t *Table) Lookup(from, to models.Status) (Transition, bool) {
	tr, ok := t.edges[from][to]
	return tr, ok
}

// Next lists the statuses reachable from from, in status order.
func (t *Table) Next(from models.Status) []models.Status {
	var out []models.Status
	for _, s := range models.AllStatuses {
		if _, ok := t.edges[from][s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// All returns every transition grouped by origin, in status order.
func (t *Table) All() []Transition {
	var out []Transition
	for _, from := range models.AllStatuses {
		for _, to := range t.Next(from) {
			out = append(out, t.edges[from][to])
		}
	}
	return out
}
