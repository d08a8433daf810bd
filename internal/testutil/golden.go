// Package testutil provides shared test helpers for Lox Go tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// ScenariosDir is the scenario root, relative to the module root.
const ScenariosDir = "testdata/scenarios"

// Scenario represents a test scenario loaded from a scenario.json file.
type Scenario struct {
	Cmd    []string       `json:"cmd"`
	Stdin  string         `json:"stdin,omitempty"`
	Meta   *ScenarioMeta  `json:"meta,omitempty"`
	Expect ExpectedResult `json:"expect"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
// Empty fields are not checked, except that stdout and stderr must be empty
// when neither their text nor their JSON form is given.
type ExpectedResult struct {
	ExitCode       int             `json:"exitCode"`
	StdoutText     *string         `json:"stdoutText,omitempty"`
	StdoutContains string          `json:"stdoutContains,omitempty"`
	StderrJSON     json.RawMessage `json:"stderrJson,omitempty"`
	StderrText     *string         `json:"stderrText,omitempty"`
	StderrContains string          `json:"stderrContains,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.json.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scenario.json"))
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under root, sorted.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			scenarioPath := filepath.Join(root, e.Name(), "scenario.json")
			if _, err := os.Stat(scenarioPath); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ProgramFile returns the first argument of cmd that is not a flag: the
// program file, relative to the scenario directory.
func ProgramFile(cmd []string) string {
	for _, arg := range cmd[1:] {
		if len(arg) > 0 && arg[0] != '-' {
			return arg
		}
	}
	return ""
}

// ReadProgramFile reads the program file referenced by the scenario cmd.
func ReadProgramFile(scenarioDir string, cmd []string) (string, string, error) {
	if len(cmd) < 2 {
		return "", "", nil
	}
	filename := ProgramFile(cmd)
	if filename == "" {
		return "", "", nil
	}
	source, err := os.ReadFile(filepath.Join(scenarioDir, filename))
	if err != nil {
		return "", "", err
	}
	return string(source), filename, nil
}

// HasFlag reports whether cmd contains flag.
func HasFlag(cmd []string, flag string) bool {
	for _, arg := range cmd {
		if arg == flag {
			return true
		}
	}
	return false
}
