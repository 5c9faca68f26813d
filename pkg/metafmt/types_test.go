package metafmt

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDocumentKind(t *testing.T) {
	for _, k := range DocumentKinds {
		got, err := ParseDocumentKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseDocumentKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseDocumentKind("simulation"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ParseDocumentKind(simulation) error = %v, want ErrInvalidConfig", err)
	}
}

func TestBuildConfig_Validate(t *testing.T) {
	valid := func() BuildConfig {
		return BuildConfig{
			TemplatePath: "experiment.json",
			OutputPath:   "out.xml",
			Kind:         KindExperiment,
			Model:        "HadGEM2-ES",
			Experiment:   "historical",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*BuildConfig)
		wantErr string
	}{
		{name: "valid experiment", mutate: func(*BuildConfig) {}},
		{name: "valid model", mutate: func(c *BuildConfig) { c.Kind = KindModel; c.Experiment = "" }},
		{name: "valid submodel", mutate: func(c *BuildConfig) { c.Kind = KindSubModel; c.SubModel = "Atmosphere" }},
		{name: "missing template", mutate: func(c *BuildConfig) { c.TemplatePath = "" }, wantErr: "TemplatePath is required"},
		{name: "missing output", mutate: func(c *BuildConfig) { c.OutputPath = "" }, wantErr: "OutputPath is required"},
		{name: "unknown kind", mutate: func(c *BuildConfig) { c.Kind = "grid" }, wantErr: "unknown document kind"},
		{name: "missing model", mutate: func(c *BuildConfig) { c.Model = "" }, wantErr: "needs a model"},
		{name: "experiment without experiment", mutate: func(c *BuildConfig) { c.Experiment = "" }, wantErr: "needs an experiment"},
		{name: "submodel without submodel", mutate: func(c *BuildConfig) { c.Kind = KindSubModel }, wantErr: "needs a submodel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error should wrap ErrInvalidConfig")
			}
		})
	}
}
