package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/newfla/presquile"
	"github.com/newfla/presquile/internal/config"
	"github.com/newfla/presquile/internal/logging"
	"github.com/newfla/presquile/internal/markers"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// pipelineOptions maps the loaded configuration onto library options.
// Command flags append their own options afterwards and win.
func (c *commandContext) pipelineOptions(cmd *cobra.Command) ([]presquile.Option, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	enc, err := presquile.ParseTextEncoding(cfg.Chapters.TextEncoding)
	if err != nil {
		return nil, fmt.Errorf("chapters.text_encoding: %w", err)
	}
	delim, err := markers.ParseDelimiter(cfg.Markers.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("markers.delimiter: %w", err)
	}

	opts := []presquile.Option{
		presquile.WithLogger(logger),
		presquile.WithTextEncoding(enc),
		presquile.WithDelimiter(delim),
		presquile.WithIDPrefix(cfg.Chapters.IDPrefix),
		presquile.WithTOCID(cfg.Chapters.TOCID),
		presquile.WithPlaceholder(cfg.Chapters.Placeholder),
		presquile.WithDurationProbe(cfg.Chapters.ProbeDuration),
		presquile.WithBackup(cfg.Write.BackupSuffix),
		presquile.WithOutputSuffix(cfg.Write.OutputSuffix),
		presquile.WithPadding(cfg.Write.Padding),
		presquile.WithValidation(cfg.Write.Validate),
		presquile.WithLocking(cfg.Write.Lock),
		presquile.WithConcurrency(cfg.Batch.Workers),
	}
	if cfg.Write.PreserveModTime {
		opts = append(opts, presquile.WithPreserveModTime())
	}
	return opts, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
