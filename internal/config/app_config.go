package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/temirov/llmctx/internal/classifier"
	"github.com/temirov/llmctx/internal/types"
	"github.com/temirov/llmctx/internal/utils"
)

const (
	defaultTokenModel  = "gpt-4o"
	defaultConfigType  = "yaml"
	environmentKeySeam = "_"
)

// environmentKeys lists every key that an LLMCTX_* variable may override.
var environmentKeys = []string{
	"output",
	"max_size",
	"format",
	"ignore_file",
	"use_gitignore",
	"include_git",
	"skip_empty",
	"workers",
	"exclude",
	"tokens.enabled",
	"tokens.model",
	"clipboard",
}

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	Filesystem       afero.Fs
	WorkingDirectory string
	// HomeDirectory defaults to os.UserHomeDir.
	HomeDirectory    string
	ExplicitFilePath string
	// IgnoreEnvironment skips LLMCTX_* variables.
	IgnoreEnvironment bool
}

// ApplicationConfiguration holds configuration values. Pointer and empty
// values mean "unset" so that later sources only override what they name.
type ApplicationConfiguration struct {
	Output       string             `mapstructure:"output"`
	MaxSize      *int64             `mapstructure:"max_size"`
	Format       string             `mapstructure:"format"`
	IgnoreFile   string             `mapstructure:"ignore_file"`
	UseGitignore *bool              `mapstructure:"use_gitignore"`
	IncludeGit   *bool              `mapstructure:"include_git"`
	SkipEmpty    *bool              `mapstructure:"skip_empty"`
	Workers      *int               `mapstructure:"workers"`
	Exclude      []string           `mapstructure:"exclude"`
	Tokens       TokenConfiguration `mapstructure:"tokens"`
	Clipboard    *bool              `mapstructure:"clipboard"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// DefaultConfiguration returns the built-in values every other source overrides.
func DefaultConfiguration() ApplicationConfiguration {
	maxSize := classifier.DefaultMaxSizeBytes
	workers := 1
	return ApplicationConfiguration{
		Output:       utils.DefaultOutputFileName,
		MaxSize:      &maxSize,
		Format:       types.FormatText,
		IgnoreFile:   utils.IgnoreFileName,
		UseGitignore: boolPointer(false),
		IncludeGit:   boolPointer(false),
		SkipEmpty:    boolPointer(true),
		Workers:      &workers,
		Tokens: TokenConfiguration{
			Enabled: boolPointer(false),
			Model:   defaultTokenModel,
		},
		Clipboard: boolPointer(false),
	}
}

// LoadApplicationConfiguration merges, in increasing precedence, the global
// file, the local or explicit file, and LLMCTX_* environment variables.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	filesystem := options.Filesystem
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	homeDirectory := options.HomeDirectory
	if homeDirectory == "" {
		if resolvedHome, err := os.UserHomeDir(); err == nil {
			homeDirectory = resolvedHome
		}
	}
	if homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(filesystem, globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(filesystem, localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	if !options.IgnoreEnvironment {
		environmentConfig, envErr := loadConfigurationFromEnvironment()
		if envErr != nil {
			return ApplicationConfiguration{}, envErr
		}
		merged = merged.Merge(environmentConfig)
	}

	merged.Exclude = utils.CleanPatterns(merged.Exclude)
	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath == "" {
		return filepath.Join(workingDirectory, utils.ConfigFileName)
	}
	if filepath.IsAbs(explicitPath) {
		return explicitPath
	}
	return filepath.Join(workingDirectory, explicitPath)
}

// loadConfigurationFromPath reads one YAML file. A missing file is only an
// error when it was requested explicitly.
func loadConfigurationFromPath(filesystem afero.Fs, path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := filesystem.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetFs(filesystem)
	reader.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		reader.SetConfigType(defaultConfigType)
	}
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

func loadConfigurationFromEnvironment() (ApplicationConfiguration, error) {
	reader := viper.New()
	reader.SetEnvPrefix(utils.EnvironmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(".", environmentKeySeam))
	for _, key := range environmentKeys {
		if bindErr := reader.BindEnv(key); bindErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("bind environment for %s: %w", key, bindErr)
		}
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode %s_* environment: %w", utils.EnvironmentPrefix, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.MaxSize != nil {
		result.MaxSize = cloneInt64(override.MaxSize)
	}
	if override.Format != "" {
		result.Format = strings.ToLower(override.Format)
	}
	if override.IgnoreFile != "" {
		result.IgnoreFile = override.IgnoreFile
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.IncludeGit != nil {
		result.IncludeGit = cloneBool(override.IncludeGit)
	}
	if override.SkipEmpty != nil {
		result.SkipEmpty = cloneBool(override.SkipEmpty)
	}
	if override.Workers != nil {
		result.Workers = cloneInt(override.Workers)
	}
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, utils.CleanPatterns(override.Exclude)...)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

// Validate rejects values no command can act on.
func (config ApplicationConfiguration) Validate() error {
	if config.Format != "" && config.Format != types.FormatText && config.Format != types.FormatJSON {
		return fmt.Errorf("unsupported format %q (use %s or %s)", config.Format, types.FormatText, types.FormatJSON)
	}
	if config.MaxSize != nil && *config.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive, got %d", *config.MaxSize)
	}
	if config.Workers != nil && *config.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *config.Workers)
	}
	return nil
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// BoolValue dereferences an optional flag, treating nil as false.
func BoolValue(value *bool) bool {
	return value != nil && *value
}

func boolPointer(value bool) *bool {
	return &value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt64(value *int64) *int64 {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
