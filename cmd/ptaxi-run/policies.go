package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ptaxisim/engine/policy"
)

// loadPolicyFixtures reads a JSON array of policy.Policy records from path,
// the same read-file-then-unmarshal-into-struct idiom the teacher's timing
// configuration loader uses, generalized from one struct to a slice. The
// file format mirrors policy.Policy's field names directly so a fixture
// written by hand reads the same as the wire record it becomes.
func loadPolicyFixtures(path string) ([]policy.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy fixture file: %w", err)
	}

	var fixtures []policy.Policy
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse policy fixture file: %w", err)
	}

	return fixtures, nil
}
