package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() {
	c.normalizeChapters()
	c.Markers.Delimiter = lowerOr(c.Markers.Delimiter, defaultDelimiter)
	c.normalizeLogging()
}

func (c *Config) normalizeChapters() {
	c.Chapters.TextEncoding = lowerOr(c.Chapters.TextEncoding, defaultTextEncoding)
	c.Chapters.IDPrefix = strings.TrimSpace(c.Chapters.IDPrefix)
	if c.Chapters.IDPrefix == "" {
		c.Chapters.IDPrefix = defaultIDPrefix
	}
	c.Chapters.TOCID = strings.TrimSpace(c.Chapters.TOCID)
	if c.Chapters.TOCID == "" {
		c.Chapters.TOCID = defaultTOCID
	}
	if strings.TrimSpace(c.Chapters.Placeholder) == "" {
		c.Chapters.Placeholder = defaultPlaceholder
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("PRESQUILE_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = lowerOr(c.Logging.Level, defaultLogLevel)
	c.Logging.Format = lowerOr(c.Logging.Format, defaultLogFormat)
}

func lowerOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
