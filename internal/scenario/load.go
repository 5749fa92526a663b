package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultPath is used when neither a flag nor SCENARIO_PATH names a file.
const DefaultPath = "scenarios/spin/config.json"

// PathFromEnv returns flagValue, then $SCENARIO_PATH, then DefaultPath.
func PathFromEnv(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("SCENARIO_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads, decodes and validates the scenario at path. Errors are
// ErrNotFound (wrapped), *ParseError or *ValidationError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes and validates raw scenario JSON. path is only used in
// errors and stored on the result.
func Parse(path string, data []byte) (*Config, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	problems, err := structuralProblems(doc)
	if err != nil {
		return nil, fmt.Errorf("scenario schema: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Type mismatches are usually already described by the schema pass.
		if len(problems) > 0 {
			return nil, &ValidationError{Path: path, Problems: problems}
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Path: path, Problems: problems}
	}

	semantic, warnings := validate(&cfg)
	if len(semantic) > 0 {
		return nil, &ValidationError{Path: path, Problems: semantic}
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	cfg.Path = path
	cfg.Warnings = warnings
	return &cfg, nil
}
