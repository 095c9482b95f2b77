// Command policytool validates and lints a policy bundle YAML file
// offline, without starting the governance core service.
package main

import (
	"fmt"
	"os"

	"github.com/proofmesh/govcore/pkg/policy"
	_ "github.com/proofmesh/govcore/pkg/policy/hipaa"
	_ "github.com/proofmesh/govcore/pkg/policy/minnecessary"
	_ "github.com/proofmesh/govcore/pkg/policy/rbac"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: policytool <bundle.yaml>\n")
		os.Exit(1)
	}

	bundle, err := policy.LoadBundleFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	registry := policy.NewRegistry()
	engine := policy.New(registry, nil)
	if err := engine.ApplyBundle(bundle); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("bundle %s: %d polic(ies) declared\n", os.Args[1], len(bundle.Policies))
	for _, entry := range bundle.Policies {
		fmt.Printf("  - %s (%s)\n", entry.Name, entry.Type)
	}

	order := bundle.EvaluationOrder
	if len(order) == 0 {
		fmt.Println("evaluation order: declaration order (no evaluation_order set)")
	} else {
		fmt.Printf("evaluation order: %v\n", order)
	}
}
