package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"reviewpipe/pkg/utils"
)

// Dataset declares one source file the ingest job lands.
type Dataset struct {
	Name      string `yaml:"name" validate:"required"`
	SourceURL string `yaml:"source_url" validate:"required,url"`
	TargetKey string `yaml:"target_key" validate:"required"`
}

// Datasets is the parsed datasets file.
type Datasets struct {
	Datasets []Dataset `yaml:"datasets" validate:"required,min=1,dive"`
}

// LoadDatasets reads and validates the YAML datasets declaration.
func LoadDatasets(path string) (*Datasets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read datasets file %s: %w", path, err)
	}

	var ds Datasets
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse datasets file %s: %w", path, err)
	}

	if err := utils.ValidateStruct(&ds); err != nil {
		return nil, fmt.Errorf("invalid datasets file %s: %w", path, err)
	}

	return &ds, nil
}
