package hipaa

import "github.com/proofmesh/govcore/pkg/policy"

func init() {
	policy.RegisterFactory("hipaa", func(name string, parameters map[string]interface{}) (policy.Policy, error) {
		return New(name), nil
	})
}
