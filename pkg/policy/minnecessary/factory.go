package minnecessary

import (
	"gopkg.in/yaml.v3"

	"github.com/proofmesh/govcore/pkg/policy"
)

func init() {
	policy.RegisterFactory("minimum_necessary", func(name string, parameters map[string]interface{}) (policy.Policy, error) {
		raw, err := yaml.Marshal(parameters)
		if err != nil {
			return nil, err
		}
		var cfg Config
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return New(name, cfg), nil
	})
}
