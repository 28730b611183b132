package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// pipelineFile is a standalone pipeline-definitions document, used by the
// validate command and tests without pulling in the whole global config.
type pipelineFile struct {
	Pipelines []PipelineConfig `yaml:"pipelines"`
}

// LoadPipelines reads pipeline declarations from a standalone YAML file.
func LoadPipelines(path string) ([]PipelineConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("pipeline file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file %s: %w", path, err)
	}

	var doc pipelineFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file %s: %w", path, err)
	}
	if len(doc.Pipelines) == 0 {
		return nil, fmt.Errorf("pipeline file %s declares no pipelines", path)
	}

	if err := ValidatePipelines(doc.Pipelines); err != nil {
		return nil, err
	}
	return doc.Pipelines, nil
}
