package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gauntlet/internal/cost"
	"gauntlet/internal/parallel"
)

// envOr returns the environment value for key, or the fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseIndices parses a comma-separated index list like "3,17,150".
func parseIndices(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parse index %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// loadPricing loads a pricing YAML when a path is given, defaults otherwise.
func loadPricing(path string) (cost.Pricing, error) {
	if path == "" {
		return cost.DefaultPricing(), nil
	}
	return cost.LoadPricing(path)
}

// stderrProgress returns a progress callback that rewrites a counter line
// on stderr, ending with a newline on the last item.
func stderrProgress(stage string) parallel.ProgressFunc {
	return func(done, total int) {
		fmt.Fprintf(os.Stderr, "\r%s: %d/%d", stage, done, total)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}
