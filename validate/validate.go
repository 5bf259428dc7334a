// Command validate is a small CLI that validates rules preset JSON files in
// the configs directory. It checks:
//   - JSON structure and required fields
//   - Board size and run length bounds, and that the run fits the board
//   - Turn timeout bounds
//   - Duplicate preset names across files
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/statefulgames/kinarow/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validatePreset loads and validates a single preset JSON file.
func validatePreset(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var rules engine.Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if rules.Name == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "Missing preset name")
	}

	if err := engine.ValidateRules(rules); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	return result
}

// validateDir validates every .json file in dir and reports duplicate preset
// names across files.
func validateDir(dir string) ([]ValidationResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var results []ValidationResult
	namesSeen := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		result := validatePreset(path)

		var rules engine.Rules
		if data, err := os.ReadFile(path); err == nil {
			if json.Unmarshal(data, &rules) == nil && rules.Name != "" {
				if prev, dup := namesSeen[rules.Name]; dup {
					result.Valid = false
					result.Errors = append(result.Errors,
						fmt.Sprintf("Preset name %q already used by %s", rules.Name, prev))
				} else {
					namesSeen[rules.Name] = entry.Name()
				}
			}
		}

		results = append(results, result)
	}

	return results, nil
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	results, err := validateDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(results) == 0 {
		fmt.Printf("No preset files found in %s\n", dir)
		os.Exit(1)
	}

	failures := 0
	for _, result := range results {
		if result.Valid {
			fmt.Printf("OK    %s\n", result.File)
			continue
		}
		failures++
		fmt.Printf("FAIL  %s\n", result.File)
		for _, msg := range result.Errors {
			fmt.Printf("      - %s\n", msg)
		}
	}

	fmt.Printf("\n%d file(s) checked, %d failure(s)\n", len(results), failures)
	if failures > 0 {
		os.Exit(1)
	}
}
