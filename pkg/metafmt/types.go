package metafmt

import (
	"errors"
	"fmt"
	"strings"
)

// DocumentKind names what a document describes. It decides which
// selectors a build needs.
type DocumentKind string

const (
	KindModel      DocumentKind = "model"
	KindExperiment DocumentKind = "experiment"
	KindSubModel   DocumentKind = "submodel"
)

// DocumentKinds lists the valid kinds.
var DocumentKinds = []DocumentKind{KindModel, KindExperiment, KindSubModel}

// ParseDocumentKind validates a kind name.
func ParseDocumentKind(s string) (DocumentKind, error) {
	for _, k := range DocumentKinds {
		if string(k) == s {
			return k, nil
		}
	}
	names := make([]string, len(DocumentKinds))
	for i, k := range DocumentKinds {
		names[i] = string(k)
	}
	return "", fmt.Errorf("unknown document kind %q (expected %s): %w", s, strings.Join(names, ", "), ErrInvalidConfig)
}

// BuildConfig contains all parameters needed to build and write one
// document.
type BuildConfig struct {
	// TemplatePath is the JSON or YAML template file.
	TemplatePath string

	// OutputPath is the file the document is written to. A .zst suffix
	// compresses it.
	OutputPath string

	// Format is the output serialization. Empty means: infer from
	// OutputPath, then the configuration file, then DefaultFormat.
	Format string

	// Kind is the document kind; it decides which selectors are required.
	Kind DocumentKind

	// Selectors passed to every DAO.
	Project    string
	Experiment string
	Model      string
	SubModel   string

	// ConfigDir holds metafmt.yaml. Empty means the current directory.
	ConfigDir string

	// DAOOptions are key-value pairs layered over the configured DAO
	// environment.
	DAOOptions map[string]string

	// EnvFiles are read with godotenv and layered between the configured
	// environment and DAOOptions.
	EnvFiles []string

	// StableIDs derives element identifiers from the template and
	// selectors instead of generating random ones.
	StableIDs bool

	// MetricsFile, when set, receives the build metrics in the Prometheus
	// text format.
	MetricsFile string

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the BuildConfig has all required fields and valid
// values. It returns a multi-error if multiple validation failures occur.
func (c *BuildConfig) Validate() error {
	var errs []error

	if c.TemplatePath == "" {
		errs = append(errs, fmt.Errorf("TemplatePath is required: %w", ErrInvalidConfig))
	}
	if c.OutputPath == "" {
		errs = append(errs, fmt.Errorf("OutputPath is required: %w", ErrInvalidConfig))
	}
	errs = append(errs, c.ValidateSelectors())

	return errors.Join(errs...)
}

// ValidateSelectors checks the selectors the document kind requires:
// every kind needs a model, an experiment document also needs the
// experiment, and a sub-model document the sub-model.
func (c *BuildConfig) ValidateSelectors() error {
	var errs []error

	if _, err := ParseDocumentKind(string(c.Kind)); err != nil {
		return err
	}
	if c.Model == "" {
		errs = append(errs, fmt.Errorf("a %s document needs a model: %w", c.Kind, ErrInvalidConfig))
	}
	if c.Kind == KindExperiment && c.Experiment == "" {
		errs = append(errs, fmt.Errorf("an experiment document needs an experiment: %w", ErrInvalidConfig))
	}
	if c.Kind == KindSubModel && c.SubModel == "" {
		errs = append(errs, fmt.Errorf("a submodel document needs a submodel: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
