package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/metafmt/internal/assembly"
	"github.com/vvka-141/metafmt/internal/checksum"
	"github.com/vvka-141/metafmt/internal/config"
	"github.com/vvka-141/metafmt/internal/encoding"
	"github.com/vvka-141/metafmt/internal/files/filesystem"
	"github.com/vvka-141/metafmt/internal/metrics"
	"github.com/vvka-141/metafmt/internal/params"
	"github.com/vvka-141/metafmt/internal/report"
	"github.com/vvka-141/metafmt/internal/schema"
	"github.com/vvka-141/metafmt/internal/template"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Formatter builds documents from templates.
// Thread-Safety: NOT safe for concurrent Format() calls on the same
// instance. Create separate instances for concurrent builds.
type Formatter struct {
	logger     metafmt.Logger
	files      filesystem.FileSystemProvider
	checksum   checksum.Calculator
	openStore  StoreOpener
	loadConfig func(dir string) (*config.FormatConfig, error)
}

// NewFormatter creates a Formatter with all dependencies injected.
//
// Panics if any dependency is nil; that is a wiring mistake, not a runtime
// condition.
func NewFormatter(logger metafmt.Logger, files filesystem.FileSystemProvider, openStore StoreOpener) *Formatter {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if files == nil {
		panic("files cannot be nil")
	}
	if openStore == nil {
		panic("openStore cannot be nil")
	}
	return &Formatter{
		logger:     logger,
		files:      files,
		checksum:   checksum.New(),
		openStore:  openStore,
		loadConfig: config.LoadOrDefault,
	}
}

// session is the resolved input of one build.
type session struct {
	file    *config.FormatConfig
	env     map[string]string
	globals map[string]string
	tree    *template.Node
}

func (f *Formatter) prepare(cfg *metafmt.BuildConfig) (*session, error) {
	file, err := f.loadConfig(cfg.ConfigDir)
	if err != nil {
		return nil, err
	}

	envFiles, err := params.ReadEnvFiles(cfg.EnvFiles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", metafmt.ErrInvalidConfig, err)
	}
	selectors := params.Selectors{
		Project:    cfg.Project,
		Experiment: cfg.Experiment,
		Model:      cfg.Model,
		SubModel:   cfg.SubModel,
	}
	env := params.Layer(file.Database.Environment(), envFiles, cfg.DAOOptions, selectors.Map())

	globals := file.Global.Globals()
	if cfg.Project != "" {
		globals[metafmt.AttrProject] = cfg.Project
	}

	data, err := f.files.ReadFile(cfg.TemplatePath)
	if err != nil {
		return nil, metafmt.NewTemplateError("", "cannot read template %s: %v", cfg.TemplatePath, err)
	}
	tree, err := template.Parse(data, template.FormatFromPath(cfg.TemplatePath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.TemplatePath, err)
	}
	f.logger.Verbose("Parsed template %s", cfg.TemplatePath)

	return &session{file: file, env: env, globals: globals, tree: tree}, nil
}

// Plan resolves and arranges the template without querying any metadata.
// It returns the tree in template order and in build order.
func (f *Formatter) Plan(ctx context.Context, cfg metafmt.BuildConfig) (original, arranged *assembly.Node, err error) {
	if cfg.TemplatePath == "" {
		return nil, nil, fmt.Errorf("TemplatePath is required: %w", metafmt.ErrInvalidConfig)
	}
	s, err := f.prepare(&cfg)
	if err != nil {
		return nil, nil, err
	}
	site, closeSite, err := f.openSite(ctx, s.file.SiteName(), s.env, false)
	if err != nil {
		return nil, nil, err
	}
	defer closeSite()

	doc, err := assembly.NewBuilder(site, s.globals, s.env).Build(s.tree)
	if err != nil {
		return nil, nil, err
	}
	return doc.Root, assembly.Arrange(doc.Root), nil
}

// Format builds the document cfg describes, writes it, and returns the
// build summary. A document that fails validation is still written; the
// summary is returned together with an error wrapping
// metafmt.ErrValidationFailed.
func (f *Formatter) Format(ctx context.Context, cfg metafmt.BuildConfig) (*report.Summary, error) {
	started := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := f.prepare(&cfg)
	if err != nil {
		return nil, err
	}

	format, err := f.resolveFormat(&cfg, s.file)
	if err != nil {
		return nil, err
	}

	site, closeSite, err := f.openSite(ctx, s.file.SiteName(), s.env, true)
	if err != nil {
		return nil, err
	}
	defer closeSite()

	doc, err := assembly.NewBuilder(site, s.globals, s.env).Build(s.tree)
	if err != nil {
		return nil, err
	}
	doc.Root = assembly.Arrange(doc.Root)

	m := metrics.New()
	walker := &assembly.Walker{IDs: schema.RandomIDs{}, Logger: f.logger, Metrics: m}
	if cfg.StableIDs || s.file.Output.StableIDs {
		walker.IDs = schema.NewStableIDs(stableSeed(&cfg))
	}
	root, err := walker.Build(ctx, doc)
	if err != nil {
		return nil, err
	}

	invalid := schema.Validate(root)
	m.SetInvalid(len(invalid))
	for _, inv := range invalid {
		f.logger.Warn("invalid element: %s", inv)
	}

	data, err := encoding.Encode(root, format)
	if err != nil {
		return nil, err
	}
	written, err := encoding.WriteFile(cfg.OutputPath, data)
	if err != nil {
		return nil, err
	}
	f.logger.Verbose("Wrote %s (%d bytes)", cfg.OutputPath, len(written))

	metricsFile := cfg.MetricsFile
	if metricsFile == "" {
		metricsFile = s.file.Output.MetricsFile
	}
	if metricsFile != "" {
		if err := m.WriteTextfile(metricsFile); err != nil {
			f.logger.Error("writing metrics to %s: %v", metricsFile, err)
		}
	}

	summary := &report.Summary{
		Template: cfg.TemplatePath,
		Output:   cfg.OutputPath,
		Format:   string(format),
		Bytes:    len(written),
		Digest:   f.checksum.CalculateRaw(written),
		Elements: report.CountElements(root),
		Invalid:  invalid,
		Duration: time.Since(started),
	}
	if len(invalid) > 0 {
		return summary, fmt.Errorf("%s: %d invalid element(s): %w", cfg.OutputPath, len(invalid), metafmt.ErrValidationFailed)
	}
	return summary, nil
}

// resolveFormat picks the output format: the explicit one, then the
// output path's extension, then the configuration file, then the default.
func (f *Formatter) resolveFormat(cfg *metafmt.BuildConfig, file *config.FormatConfig) (encoding.Format, error) {
	if cfg.Format != "" {
		return encoding.ParseFormat(cfg.Format)
	}
	if fmtFromPath := encoding.FormatForPath(cfg.OutputPath); fmtFromPath != "" {
		return fmtFromPath, nil
	}
	if file.Output.Format != "" {
		return encoding.ParseFormat(file.Output.Format)
	}
	return encoding.ParseFormat(metafmt.DefaultFormat)
}

// stableSeed identifies a document for stable identifiers: the same
// template and selectors give the same identifiers.
func stableSeed(cfg *metafmt.BuildConfig) string {
	return strings.Join([]string{
		cfg.TemplatePath, string(cfg.Kind), cfg.Project, cfg.Model, cfg.SubModel, cfg.Experiment,
	}, "\x00")
}
