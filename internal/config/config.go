// Package config loads ignore files into a compiled rule set and reads the
// application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/temirov/llmctx/internal/ignore"
	"github.com/temirov/llmctx/internal/types"
	"github.com/temirov/llmctx/internal/utils"
)

const (
	// ExclusionSource names rules added with --exclude.
	ExclusionSource = "--exclude"
	// OutputFileSource names the rule that keeps the output file out of its own context.
	OutputFileSource = "--output"
	anchorPrefix     = "/"
)

// RuleOptions describes which ignore sources contribute to a rule set.
type RuleOptions struct {
	Filesystem    afero.Fs
	RootDirectory string
	// IgnoreFileName is resolved against RootDirectory unless absolute. Empty disables it.
	IgnoreFileName string
	UseGitignore   bool
	IncludeGit     bool
	Exclusions     []string
	// OutputPath is excluded with an anchored rule when it lies inside RootDirectory.
	OutputPath string
}

// LoadIgnoreText reads an ignore file. A missing file yields an empty string and found=false.
//
// #nosec G304
func LoadIgnoreText(filesystem afero.Fs, ignoreFilePath string) (string, bool, error) {
	content, readError := afero.ReadFile(filesystem, ignoreFilePath)
	if readError != nil {
		if errors.Is(readError, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read ignore file %s: %w", ignoreFilePath, readError)
	}
	return string(content), true, nil
}

// BuildRuleSet compiles, in order, the default rules, the root .gitignore when
// enabled, the ignore file, the exclusion patterns, and the output-file rule.
// Malformed lines come back as diagnostics; only unreadable files are errors.
func BuildRuleSet(options RuleOptions) (ignore.RuleSet, []types.Diagnostic, error) {
	filesystem := options.Filesystem
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	compiler := ignore.NewCompiler(ignore.DefaultRuleSet(options.IncludeGit))

	if options.UseGitignore {
		gitIgnorePath := filepath.Join(options.RootDirectory, utils.GitIgnoreFileName)
		if loadError := addIgnoreFile(compiler, filesystem, gitIgnorePath, utils.GitIgnoreFileName); loadError != nil {
			return ignore.RuleSet{}, nil, loadError
		}
	}

	if options.IgnoreFileName != "" {
		ignoreFilePath := options.IgnoreFileName
		if !filepath.IsAbs(ignoreFilePath) {
			ignoreFilePath = filepath.Join(options.RootDirectory, ignoreFilePath)
		}
		if loadError := addIgnoreFile(compiler, filesystem, ignoreFilePath, filepath.Base(ignoreFilePath)); loadError != nil {
			return ignore.RuleSet{}, nil, loadError
		}
	}

	compiler.AddLines(ExclusionSource, utils.CleanPatterns(options.Exclusions))

	if options.OutputPath != "" {
		absoluteOutput, absoluteError := filepath.Abs(options.OutputPath)
		if absoluteError != nil {
			return ignore.RuleSet{}, nil, fmt.Errorf("resolve output path %s: %w", options.OutputPath, absoluteError)
		}
		relativeOutput := utils.RelativePathOrSelf(absoluteOutput, options.RootDirectory)
		if utils.IsWithinRoot(relativeOutput) {
			compiler.AddLines(OutputFileSource, []string{anchorPrefix + ignore.EscapePattern(relativeOutput)})
		}
	}

	return compiler.RuleSet(), compiler.Diagnostics(), nil
}

func addIgnoreFile(compiler *ignore.Compiler, filesystem afero.Fs, path string, source string) error {
	text, found, loadError := LoadIgnoreText(filesystem, path)
	if loadError != nil {
		return loadError
	}
	if found {
		compiler.AddText(source, text)
	}
	return nil
}
