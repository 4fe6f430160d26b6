package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/newfla/presquile/internal/markers"
	"github.com/newfla/presquile/internal/types"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateChapters(); err != nil {
		return err
	}
	if _, err := markers.ParseDelimiter(c.Markers.Delimiter); err != nil {
		return fmt.Errorf("markers.delimiter: %w", err)
	}
	if err := c.validateWrite(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Batch.Workers < 0 {
		return errors.New("batch.workers must be zero or positive")
	}
	return nil
}

func (c *Config) validateChapters() error {
	if _, err := types.ParseTextEncoding(c.Chapters.TextEncoding); err != nil {
		return fmt.Errorf("chapters.text_encoding: %w", err)
	}
	if strings.ContainsRune(c.Chapters.IDPrefix, 0) {
		return errors.New("chapters.id_prefix must not contain NUL")
	}
	if strings.ContainsRune(c.Chapters.TOCID, 0) {
		return errors.New("chapters.toc_id must not contain NUL")
	}
	if strings.HasPrefix(c.Chapters.TOCID, c.Chapters.IDPrefix) && isDigits(c.Chapters.TOCID[len(c.Chapters.IDPrefix):]) {
		return fmt.Errorf("chapters.toc_id %q collides with chapter ids %s0, %s1, ...",
			c.Chapters.TOCID, c.Chapters.IDPrefix, c.Chapters.IDPrefix)
	}
	return nil
}

func (c *Config) validateWrite() error {
	if c.Write.Padding < -1 {
		return errors.New("write.padding must be -1 (keep) or a byte count")
	}
	if strings.ContainsAny(c.Write.OutputSuffix, `/\`) {
		return errors.New("write.output_suffix must not contain path separators")
	}
	if c.Write.BackupSuffix != "" && c.Write.BackupSuffix == c.Write.OutputSuffix {
		return errors.New("write.backup_suffix and write.output_suffix must differ")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
