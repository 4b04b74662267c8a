package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/med2305/mlops/internal/infrastructure/classifier"
	"github.com/med2305/mlops/internal/infrastructure/dataset"
)

// trainConfig is the YAML training configuration. Flags override it.
type trainConfig struct {
	Data      dataConfig        `yaml:"data"`
	Model     classifier.Config `yaml:"model"`
	Output    string            `yaml:"output"`
	Threshold float64           `yaml:"threshold"`
}

type dataConfig struct {
	Path       string   `yaml:"path"`
	LabelField string   `yaml:"label_field"`
	Exclude    []string `yaml:"exclude"`
	TestSize   float64  `yaml:"test_size"`
	Seed       int64    `yaml:"seed"`
}

func defaultTrainConfig() trainConfig {
	return trainConfig{
		Data: dataConfig{
			LabelField: dataset.DefaultLabelField,
			Exclude:    dataset.DefaultOptions().Exclude,
			TestSize:   0.3,
			Seed:       42,
		},
		Model:     classifier.DefaultConfig(),
		Output:    "models/current",
		Threshold: 0.5,
	}
}

// loadTrainConfig overlays the file at path on the defaults. An empty path
// returns the defaults.
func loadTrainConfig(path string) (trainConfig, error) {
	cfg := defaultTrainConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return trainConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return trainConfig{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c trainConfig) validate() error {
	var errs []error
	if c.Data.Path == "" {
		errs = append(errs, errors.New("data.path is required"))
	}
	if c.Data.LabelField == "" {
		errs = append(errs, errors.New("data.label_field is required"))
	}
	if c.Data.TestSize <= 0 || c.Data.TestSize >= 1 {
		errs = append(errs, fmt.Errorf("data.test_size must be within (0, 1), got %v", c.Data.TestSize))
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold must be within [0, 1], got %v", c.Threshold))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output is required"))
	}
	return errors.Join(errs...)
}
