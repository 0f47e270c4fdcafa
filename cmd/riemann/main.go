// Command riemann checks manifold geometries described in YAML files.
//
// Usage:
//
//	riemann check --config geometry.yaml [--dtype float32|float64] [--samples N] [--seed S]
//	riemann init [path]
//	riemann version
package main

import (
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
