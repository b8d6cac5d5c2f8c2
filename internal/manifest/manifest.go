// Package manifest loads declarative command and cycle definitions from
// YAML so the scheduler can be driven without writing Go.
//
// Actions in a manifest are built-ins: print a message, set params or fail.
// Cycle loops run a fixed number of iterations.
//
//	phases: [prepare, work, report]
//	default_phase: work
//	commands:
//	  - name: fetch
//	    phase: prepare
//	    action: {message: "fetching"}
//	  - name: process
//	    require_before: [fetch]
//	    next: [summary]
//	    action: {set: {processed: true}}
//	  - name: summary
//	    phase: report
//	    action: {message: "done"}
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the top-level structure of a manifest file.
type Manifest struct {
	Phases       []string      `yaml:"phases,omitempty"`
	DefaultPhase string        `yaml:"default_phase,omitempty"`
	Commands     []CommandSpec `yaml:"commands"`
	Cycles       []CycleSpec   `yaml:"cycles,omitempty"`
}

// CommandSpec declares a command.
type CommandSpec struct {
	Name           string     `yaml:"name"`
	Description    string     `yaml:"description,omitempty"`
	Phase          string     `yaml:"phase,omitempty"`
	RequiredParams []string   `yaml:"requires,omitempty"`
	GoesBefore     []string   `yaml:"goes_before,omitempty"`
	GoesAfter      []string   `yaml:"goes_after,omitempty"`
	RequireBefore  []string   `yaml:"require_before,omitempty"`
	Next           []RefSpec  `yaml:"next,omitempty"`
	Trigger        string     `yaml:"trigger,omitempty"`
	Action         ActionSpec `yaml:"action"`
	Cycle          *CycleSpec `yaml:"cycle,omitempty"`
}

// ActionSpec selects a built-in action. Exactly one field may be set; an
// empty action does nothing.
type ActionSpec struct {
	Message string         `yaml:"message,omitempty"`
	Set     map[string]any `yaml:"set,omitempty"`
	Fail    string         `yaml:"fail,omitempty"`
}

// CycleSpec declares a cycle that runs its body Iterations times.
type CycleSpec struct {
	Name       string    `yaml:"name"`
	Command    string    `yaml:"command,omitempty"`
	Iterations int       `yaml:"iterations"`
	Body       []RefSpec `yaml:"body"`
}

// RefSpec is either a command name or an inline command.
type RefSpec struct {
	Name   string
	Inline *CommandSpec
}

// UnmarshalYAML accepts a scalar name or a command mapping.
func (r *RefSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&r.Name)
	case yaml.MappingNode:
		var spec CommandSpec
		if err := node.Decode(&spec); err != nil {
			return err
		}
		r.Inline = &spec
		return nil
	default:
		return fmt.Errorf("line %d: command reference must be a name or a command", node.Line)
	}
}

// MarshalYAML writes a name reference as a scalar.
func (r RefSpec) MarshalYAML() (any, error) {
	if r.Inline != nil {
		return r.Inline, nil
	}
	return r.Name, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates manifest YAML. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest is empty")
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if errs := m.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &m, nil
}
