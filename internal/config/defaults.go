package config

const (
	defaultTextEncoding = "utf-8"
	defaultIDPrefix     = "chp"
	defaultTOCID        = "toc"
	defaultPlaceholder  = "Chapter %d"
	defaultDelimiter    = "auto"
	defaultLogLevel     = "info"
	defaultLogFormat    = "console"
)

// Default returns the configuration used when no file is present. It
// matches sample_config.toml.
func Default() Config {
	return Config{
		Chapters: Chapters{
			TextEncoding:  defaultTextEncoding,
			IDPrefix:      defaultIDPrefix,
			TOCID:         defaultTOCID,
			Placeholder:   defaultPlaceholder,
			ProbeDuration: true,
		},
		Markers: Markers{Delimiter: defaultDelimiter},
		Write: Write{
			Padding:  -1,
			Validate: true,
			Lock:     true,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
