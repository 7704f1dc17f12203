package common

import (
	"fmt"
	"os"

	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/node"

	"gopkg.in/yaml.v2"
)

// LoadScript reads a YAML operation script and validates every operation in it.
func LoadScript(scriptFile string) (*models.Script, error) {
	data, err := os.ReadFile(scriptFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", scriptFile, err)
	}

	var script models.Script
	if err := yaml.UnmarshalStrict(data, &script); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", scriptFile, err)
	}

	for i, op := range script.Operations {
		if err := node.Validate(op); err != nil {
			return nil, fmt.Errorf("%s: operation %d: %w", scriptFile, i, err)
		}
	}
	return &script, nil
}
