package utils

// File and directory names used across the project.
const (
	// IgnoreFileName is the name of the project's ignore file.
	IgnoreFileName = ".llmignore"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// DefaultOutputFileName is where the context document is written unless overridden.
	DefaultOutputFileName = "llm_context.txt"
	// ConfigFileName is the local configuration file looked up in the working directory.
	ConfigFileName = ".llmctx.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".llmctx"
	// GlobalConfigFileName is the configuration file inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// EnvironmentPrefix prefixes environment variables that override configuration.
	EnvironmentPrefix = "LLMCTX"
	// LogLevelVariableSuffix completes LLMCTX_LOG_LEVEL, which selects the log level.
	LogLevelVariableSuffix = "LOG_LEVEL"
)

// Messages reported by the command entry point.
const (
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	ApplicationExecutionFailedMessage       = "llmctx failed"
)
