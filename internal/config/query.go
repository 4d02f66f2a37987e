package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultInterval is the poll interval in seconds when none is configured
const DefaultInterval = 60

// QueryParams is what the operator wants monitored
type QueryParams struct {
	FromStation string   `yaml:"from_station" validate:"required"`
	ToStation   string   `yaml:"to_station" validate:"required"`
	TrainDate   string   `yaml:"train_date" validate:"required,datetime=2006-01-02"`
	TrainCodes  []string `yaml:"train_codes,omitempty" validate:"omitempty,dive,required"`
	SeatTypes   []string `yaml:"seat_types,omitempty" validate:"omitempty,dive,required"`
	Interval    int      `yaml:"interval" validate:"gte=1"`
}

// QueryFile is the root structure of the YAML query file
type QueryFile struct {
	QueryParams *QueryParams `yaml:"query_params" validate:"required"`
}

// Validate applies defaults and checks the parameters against their struct tags
func (q *QueryParams) Validate() error {
	if q.Interval == 0 {
		q.Interval = DefaultInterval
	}
	return validator.New().Struct(q)
}

// LoadQueryFile reads and validates the query parameters stored at path
func LoadQueryFile(path string) (*QueryParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file QueryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if file.QueryParams == nil {
		return nil, fmt.Errorf("%s has no query_params section", path)
	}
	if err := file.QueryParams.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query_params in %s: %w", path, err)
	}
	return file.QueryParams, nil
}

// SaveQueryFile writes the query parameters to path
func SaveQueryFile(path string, params QueryParams) error {
	data, err := yaml.Marshal(QueryFile{QueryParams: &params})
	if err != nil {
		return fmt.Errorf("failed to encode query file: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
