// Package script parses and runs YAML replay scripts: sequences of list
// mutations whose published events are captured for inspection.
package script

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpInsert      = "insert"
	OpAdd         = "add"
	OpSet         = "set"
	OpRemove      = "remove"
	OpRemoveRange = "remove_range"
	OpClear       = "clear"
	OpSort        = "sort"
	OpBatch       = "batch"
	OpLoad        = "load"

	OrderDesc = "desc"
)

// Parse errors.
var (
	ErrInvalidScript = errors.New("invalid script")
	ErrLoadNotLazy   = errors.New("load step in a script that is not lazy")
	ErrLazyInitial   = errors.New("lazy script must not declare initial values")
)

//go:embed schema.json
var schemaJSON string

// Script is a parsed replay script.
type Script struct {
	Name    string   `json:"name,omitempty"    yaml:"name"`
	Lazy    bool     `json:"lazy,omitempty"    yaml:"lazy"`
	Initial []string `json:"initial,omitempty" yaml:"initial"`
	Steps   []Step   `json:"steps"             yaml:"steps"`
}

// Step is one mutation. Which fields apply depends on Op.
type Step struct {
	Op     string   `json:"op"               yaml:"op"`
	Index  int      `json:"index,omitempty"  yaml:"index"`
	From   int      `json:"from,omitempty"   yaml:"from"`
	To     int      `json:"to,omitempty"     yaml:"to"`
	Value  *string  `json:"value,omitempty"  yaml:"value"`
	Values []string `json:"values,omitempty" yaml:"values"`
	Order  string   `json:"order,omitempty"  yaml:"order"`
	Steps  []Step   `json:"steps,omitempty"  yaml:"steps"`
}

// items returns Value followed by Values.
func (s Step) items() []string {
	if s.Value == nil {
		return s.Values
	}

	return append([]string{*s.Value}, s.Values...)
}

// Parse decodes and validates a YAML script.
func Parse(data []byte) (*Script, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	err = validate(doc)
	if err != nil {
		return nil, err
	}

	var s Script

	err = yaml.Unmarshal(data, &s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	err = s.check()
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// Read parses a script from r.
func Read(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	return Parse(data)
}

// ReadFile parses the script at path.
func ReadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	return Parse(data)
}

func validate(doc any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		msgs = append(msgs, verr.Field()+": "+verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrInvalidScript, strings.Join(msgs, "; "))
}

// check enforces the rules the schema cannot express.
func (s *Script) check() error {
	if s.Lazy && len(s.Initial) > 0 {
		return ErrLazyInitial
	}

	if !s.Lazy && hasLoad(s.Steps) {
		return ErrLoadNotLazy
	}

	return nil
}

func hasLoad(steps []Step) bool {
	for _, st := range steps {
		if st.Op == OpLoad || hasLoad(st.Steps) {
			return true
		}
	}

	return false
}
