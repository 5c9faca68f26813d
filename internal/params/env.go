package params

import (
	"fmt"

	"github.com/joho/godotenv"
)

// Selectors are the document selectors given on the command line. They name
// which experiment, model, or sub-model the document describes.
type Selectors struct {
	Project    string
	Experiment string
	Model      string
	SubModel   string
}

// Map returns the non-empty selectors keyed by the names DAOs read.
func (s Selectors) Map() map[string]string {
	m := make(map[string]string, 4)
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("project", s.Project)
	set("experiment", s.Experiment)
	set("model", s.Model)
	set("submodel", s.SubModel)
	return m
}

// ReadEnvFiles reads each file with godotenv. Later files override earlier ones.
func ReadEnvFiles(paths []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, path := range paths {
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
		}
		for k, v := range values {
			result[k] = v
		}
	}
	return result, nil
}

// Layer merges maps in order. Keys in later layers win.
func Layer(layers ...map[string]string) map[string]string {
	size := 0
	for _, l := range layers {
		size += len(l)
	}
	result := make(map[string]string, size)
	for _, l := range layers {
		for k, v := range l {
			result[k] = v
		}
	}
	return result
}
