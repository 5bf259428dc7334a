package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestValidatePreset_Valid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "classic.json", `{
  "name": "Classic",
  "board_size": 3,
  "run_length": 3,
  "turn_timeout_ms": 30000
}`)

	result := validatePreset(filepath.Join(dir, "classic.json"))
	if !result.Valid {
		t.Errorf("Expected valid, got errors: %v", result.Errors)
	}
}

func TestValidatePreset_BadJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", `{not json`)

	result := validatePreset(filepath.Join(dir, "broken.json"))
	if result.Valid {
		t.Error("Expected invalid for malformed JSON")
	}
}

func TestValidatePreset_RunTooLong(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{
  "name": "Bad",
  "board_size": 3,
  "run_length": 5,
  "turn_timeout_ms": 30000
}`)

	result := validatePreset(filepath.Join(dir, "bad.json"))
	if result.Valid {
		t.Error("Expected invalid when run length exceeds board size")
	}
}

func TestValidatePreset_MissingName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "anon.json", `{
  "board_size": 3,
  "run_length": 3,
  "turn_timeout_ms": 30000
}`)

	result := validatePreset(filepath.Join(dir, "anon.json"))
	if result.Valid {
		t.Error("Expected invalid for missing name")
	}
}

func TestValidateDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"name":"Same","board_size":3,"run_length":3,"turn_timeout_ms":30000}`)
	writeFile(t, dir, "b.json", `{"name":"Same","board_size":5,"run_length":4,"turn_timeout_ms":30000}`)

	results, err := validateDir(dir)
	if err != nil {
		t.Fatalf("validateDir failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}
	if invalid != 1 {
		t.Errorf("Expected exactly one duplicate failure, got %d", invalid)
	}
}

func TestValidateDir_SkipsNonJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "not a preset")
	writeFile(t, dir, "ok.json", `{"name":"OK","board_size":3,"run_length":3,"turn_timeout_ms":30000}`)

	results, err := validateDir(dir)
	if err != nil {
		t.Fatalf("validateDir failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected only JSON files validated, got %d results", len(results))
	}
}
