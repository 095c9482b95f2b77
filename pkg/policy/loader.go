package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Factory builds a Policy instance from YAML-decoded parameters. Built-in
// policy types (rbac, minimum_necessary, hipaa) register a Factory here
// so YAML bundles can instantiate them by name without the loader
// package importing their implementation packages directly.
type Factory func(name string, parameters map[string]interface{}) (Policy, error)

// FactoryRegistry maps a policy `type` string (as declared in YAML) to
// the constructor that builds it. Populated by each built-in policy
// package's init(), mirroring the reference's entry-point discovery by
// group name without requiring an actual plugin loader.
var FactoryRegistry = map[string]Factory{}

// RegisterFactory makes a policy type buildable from a YAML bundle entry.
func RegisterFactory(typeName string, f Factory) {
	FactoryRegistry[typeName] = f
}

// BundleEntry is one `{name, type, parameters}` declaration in a policy
// bundle YAML file.
type BundleEntry struct {
	Name       string                 `yaml:"name"`
	Type       string                 `yaml:"type"`
	Parameters map[string]interface{} `yaml:"parameters"`
}

// Bundle is the top-level YAML document: an ordered list of policy
// declarations plus the evaluation order to apply them in.
type Bundle struct {
	Policies        []BundleEntry `yaml:"policies"`
	EvaluationOrder []string      `yaml:"evaluation_order"`
}

// LoadBundleFile reads and parses a policy bundle YAML file.
func LoadBundleFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy bundle %s: %w", path, err)
	}
	return LoadBundle(data)
}

// LoadBundle parses policy bundle YAML from raw bytes.
func LoadBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse policy bundle: %w", err)
	}
	return &b, nil
}

// ApplyBundle clears the engine's registry and rebuilds it from the
// bundle's declarations (hot-reload semantics: clear then reload). With
// no evaluation_order in the bundle, the declaration order is used.
func (e *Engine) ApplyBundle(b *Bundle) error {
	e.registry.Clear()
	declared := make([]string, 0, len(b.Policies))
	for _, entry := range b.Policies {
		factory, ok := FactoryRegistry[entry.Type]
		if !ok {
			return fmt.Errorf("unknown policy type %q for policy %q", entry.Type, entry.Name)
		}
		p, err := factory(entry.Name, entry.Parameters)
		if err != nil {
			return fmt.Errorf("build policy %q: %w", entry.Name, err)
		}
		e.registry.Register(p)
		declared = append(declared, entry.Name)
	}
	if len(b.EvaluationOrder) > 0 {
		e.SetEvaluationOrder(b.EvaluationOrder)
	} else {
		e.SetEvaluationOrder(declared)
	}
	return nil
}
