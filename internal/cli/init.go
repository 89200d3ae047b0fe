package cli

import (
	"fmt"

	"github.com/example/swagdoc/internal/emit"
	"github.com/example/swagdoc/internal/generator"
	"github.com/example/swagdoc/internal/validator"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type initFlags struct {
	configPath     string
	generalInfo    string
	dirs           []string
	excludeDirs    []string
	output         string
	outputTypes    []string
	openAPIVersion string
	maxFileSize    float64
	maxChunkSize   float64
	validate       bool
}

func newInitCommand() *cobra.Command {
	var flags initFlags
	defaults := DefaultConfig()

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate the OpenAPI document and its companion files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			flags.apply(cmd.Flags(), &cfg)
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Debug = true
			}
			if err := cfg.Check(); err != nil {
				return err
			}
			log := newLogger(cmd.ErrOrStderr(), cfg.Debug)
			return runInit(cmd, cfg, log)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "Path to the config file (default "+DefaultConfigFile+")")
	f.StringVarP(&flags.generalInfo, "general-info", "g", "", "File holding the general API info (default: main.go found in --dir)")
	f.StringSliceVarP(&flags.dirs, "dir", "d", defaults.SearchDirs, "Directories to scan, comma separated")
	f.StringSliceVar(&flags.excludeDirs, "exclude-dir", nil, "Directory names to skip, comma separated")
	f.StringVarP(&flags.output, "output", "o", defaults.Output, "Output directory")
	f.StringSliceVar(&flags.outputTypes, "output-types", defaults.OutputTypes, "Output types: go, json, yaml, ui")
	f.StringVar(&flags.openAPIVersion, "oas", defaults.OpenAPIVersion, "OpenAPI version: 3.0.0, 3.1.0 or 3.1.1")
	f.Float64Var(&flags.maxFileSize, "max-file-size", defaults.MaxFileSizeMB, "Skip source files larger than this many MB (0 disables)")
	f.Float64Var(&flags.maxChunkSize, "max-chunk-size", 0, "Split openapi.json into chunks of about this many MB (0 disables)")
	f.BoolVar(&flags.validate, "validate", false, "Validate the document before writing it")
	f.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "ot" {
			name = "output-types"
		}
		return pflag.NormalizedName(name)
	})

	return cmd
}

// apply copies explicitly set flags over the file configuration.
func (fl *initFlags) apply(fs *pflag.FlagSet, cfg *Config) {
	if fs.Changed("general-info") {
		cfg.GeneralInfo = fl.generalInfo
	}
	if fs.Changed("dir") {
		cfg.SearchDirs = fl.dirs
	}
	if fs.Changed("exclude-dir") {
		cfg.ExcludeDirs = fl.excludeDirs
	}
	if fs.Changed("output") {
		cfg.Output = fl.output
	}
	if fs.Changed("output-types") {
		cfg.OutputTypes = fl.outputTypes
	}
	if fs.Changed("oas") {
		cfg.OpenAPIVersion = fl.openAPIVersion
	}
	if fs.Changed("max-file-size") {
		cfg.MaxFileSizeMB = fl.maxFileSize
	}
	if fs.Changed("max-chunk-size") {
		cfg.MaxChunkSizeMB = fl.maxChunkSize
	}
	if fs.Changed("validate") {
		cfg.Validate = fl.validate
	}
}

func runInit(cmd *cobra.Command, cfg Config, log *logrus.Logger) error {
	ctx := cmd.Context()
	gen := generator.New(generator.Config{
		SearchDirs:       cfg.SearchDirs,
		ExcludeDirs:      cfg.ExcludeDirs,
		GeneralInfo:      cfg.GeneralInfo,
		OpenAPIVersion:   cfg.OpenAPIVersion,
		MaxFileSize:      toBytes(cfg.MaxFileSizeMB),
		CustomValidators: cfg.CustomValidators,
	}, log)
	res, err := gen.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.Validate {
		if _, err := validator.New(log).ValidateDocument(ctx, res.Document); err != nil {
			return fmt.Errorf("generated document failed validation: %w", err)
		}
	}

	writer, err := emit.NewWriter(emit.Options{
		OutputDir:    cfg.Output,
		Types:        cfg.OutputTypes,
		MaxChunkSize: toBytes(cfg.MaxChunkSizeMB),
	}, log)
	if err != nil {
		return err
	}
	written, err := writer.Write(res.Document)
	if err != nil {
		return err
	}
	for _, path := range written {
		log.WithField("file", path).Info("created")
	}
	return nil
}
