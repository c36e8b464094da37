// Package cli provides the command line interface.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/llmctx/internal/classifier"
	"github.com/temirov/llmctx/internal/config"
	"github.com/temirov/llmctx/internal/output"
	"github.com/temirov/llmctx/internal/services/clipboard"
	"github.com/temirov/llmctx/internal/tokenizer"
	"github.com/temirov/llmctx/internal/types"
	"github.com/temirov/llmctx/internal/utils"
	"github.com/temirov/llmctx/internal/walker"
)

const (
	outputFlagName       = "output"
	outputFlagShorthand  = "o"
	maxSizeFlagName      = "max-size"
	yesFlagName          = "yes"
	yesFlagShorthand     = "y"
	formatFlagName       = "format"
	ignoreFileFlagName   = "ignore-file"
	gitignoreFlagName    = "gitignore"
	includeGitFlagName   = "include-git"
	skipEmptyFlagName    = "skip-empty"
	exclusionFlagName    = "exclude"
	exclusionShorthand   = "e"
	workersFlagName      = "workers"
	timeoutFlagName      = "timeout"
	tokensFlagName       = "tokens"
	modelFlagName        = "model"
	copyFlagName         = "copy"
	configFlagName       = "config"
	versionFlagName      = "version"
	initGlobalFlagName   = "global"
	initForceFlagName    = "force"
	defaultPath          = "."
	versionTemplate      = "llmctx version: %s\n"
	rootUse              = "llmctx [directory]"
	initUse              = "init"
	rootShortDescription = "bundle a source tree into one text file for an LLM"
	rootLongDescription  = `llmctx scans a directory, applies ignore rules from .llmignore (and optionally
.gitignore), skips binary, empty, and oversized files, shows the plan, and
writes every remaining file into a single context document.`
	rootUsageExample = `  # Bundle the current directory without prompting
  llmctx -y

  # Honor .gitignore, exclude fixtures, and write JSON
  llmctx ./service --gitignore -e 'testdata/' --format json -o context.json`
	initShortDescription = "write a default configuration file"

	outputFlagDescription     = "output file for the context document"
	maxSizeFlagDescription    = "maximum size in bytes for an included file"
	yesFlagDescription        = "skip the confirmation prompt"
	formatFlagDescription     = "document format: text or json"
	ignoreFileFlagDescription = "ignore file name, resolved against the scanned directory"
	gitignoreFlagDescription  = "also apply the root .gitignore (before the ignore file)"
	includeGitFlagDescription = "include the .git directory"
	skipEmptyFlagDescription  = "exclude zero-byte files"
	exclusionFlagDescription  = "extra ignore pattern, applied after the ignore files (repeatable)"
	workersFlagDescription    = "files classified concurrently per directory"
	timeoutFlagDescription    = "stop scanning after this long and use the partial result (0 disables)"
	tokensFlagDescription     = "count tokens in the generated document"
	modelFlagDescription      = "tokenizer model to use for token counting"
	copyFlagDescription       = "copy the generated document to the clipboard"
	configFlagDescription     = "configuration file (default ./" + utils.ConfigFileName + ")"
	versionFlagDescription    = "display application version"
	initGlobalFlagDescription = "write ~/" + utils.GlobalConfigDirectoryName + "/" + utils.GlobalConfigFileName + " instead of ./" + utils.ConfigFileName
	initForceFlagDescription  = "overwrite an existing configuration file"

	confirmationPrompt    = "Proceed with generating the context file? (y/N): "
	abortedMessage        = "Aborted by user."
	nothingToIncludeText  = "\nNo files to include. Exiting."
	generatingFormat      = "\nGenerating %s...\n"
	generatedFormat       = "\nSuccessfully generated context file: %s\n"
	configWrittenFormat   = "Configuration written to %s\n"
	workingDirectoryError = "unable to determine working directory: %w"
)

// ErrConfirmationUnavailable is returned when the prompt cannot be answered.
var ErrConfirmationUnavailable = errors.New("non-interactive environment detected or EOF; aborting (use --yes to skip the prompt)")

// Dependencies wires the command to its environment. Zero values are replaced
// with the process defaults.
type Dependencies struct {
	Logger           *zap.Logger
	Filesystem       afero.Fs
	Stdin            io.Reader
	Stdout           io.Writer
	Clipboard        clipboard.Copier
	NewCounter       func(tokenizer.Config) (tokenizer.Counter, string, error)
	WorkingDirectory string
	HomeDirectory    string
	Now              func() time.Time
}

func (dependencies Dependencies) withDefaults() Dependencies {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Filesystem == nil {
		dependencies.Filesystem = afero.NewOsFs()
	}
	if dependencies.Stdin == nil {
		dependencies.Stdin = os.Stdin
	}
	if dependencies.Stdout == nil {
		dependencies.Stdout = os.Stdout
	}
	if dependencies.Clipboard == nil {
		dependencies.Clipboard = clipboard.NewService()
	}
	if dependencies.NewCounter == nil {
		dependencies.NewCounter = tokenizer.NewCounter
	}
	if dependencies.Now == nil {
		dependencies.Now = time.Now
	}
	return dependencies
}

// rootOptions holds the values bound to the root command's flags.
type rootOptions struct {
	outputPath        string
	maxSizeBytes      int64
	assumeYes         bool
	format            string
	ignoreFileName    string
	useGitignore      bool
	includeGit        bool
	skipEmpty         bool
	exclusionPatterns []string
	workers           int
	timeout           time.Duration
	tokensEnabled     bool
	tokenModel        string
	copyToClipboard   bool
	configPath        string
	showVersion       bool
}

// Execute runs the llmctx application with the process arguments.
func Execute(logger *zap.Logger) error {
	rootCommand := NewRootCommand(Dependencies{Logger: logger})
	rootCommand.SetArgs(joinToggleValues(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	dependencies = dependencies.withDefaults()
	var options rootOptions
	defaults := config.DefaultConfiguration()

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				fmt.Fprintf(dependencies.Stdout, versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			rootDirectory := defaultPath
			if len(arguments) == 1 {
				rootDirectory = arguments[0]
			}
			settings, settingsError := resolveSettings(command, options, dependencies)
			if settingsError != nil {
				return settingsError
			}
			return runContext(command.Context(), dependencies, rootDirectory, settings)
		},
	}

	flagSet := rootCommand.Flags()
	flagSet.StringVarP(&options.outputPath, outputFlagName, outputFlagShorthand, defaults.Output, outputFlagDescription)
	flagSet.Int64Var(&options.maxSizeBytes, maxSizeFlagName, *defaults.MaxSize, maxSizeFlagDescription)
	flagSet.BoolVarP(&options.assumeYes, yesFlagName, yesFlagShorthand, false, yesFlagDescription)
	flagSet.StringVar(&options.format, formatFlagName, defaults.Format, formatFlagDescription)
	flagSet.StringVar(&options.ignoreFileName, ignoreFileFlagName, defaults.IgnoreFile, ignoreFileFlagDescription)
	registerToggleFlag(flagSet, &options.useGitignore, gitignoreFlagName, false, gitignoreFlagDescription)
	registerToggleFlag(flagSet, &options.includeGit, includeGitFlagName, false, includeGitFlagDescription)
	registerToggleFlag(flagSet, &options.skipEmpty, skipEmptyFlagName, true, skipEmptyFlagDescription)
	flagSet.StringArrayVarP(&options.exclusionPatterns, exclusionFlagName, exclusionShorthand, nil, exclusionFlagDescription)
	flagSet.IntVar(&options.workers, workersFlagName, *defaults.Workers, workersFlagDescription)
	flagSet.DurationVar(&options.timeout, timeoutFlagName, 0, timeoutFlagDescription)
	registerToggleFlag(flagSet, &options.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	flagSet.StringVar(&options.tokenModel, modelFlagName, defaults.Tokens.Model, modelFlagDescription)
	registerToggleFlag(flagSet, &options.copyToClipboard, copyFlagName, false, copyFlagDescription)
	flagSet.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	flagSet.BoolVar(&options.showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.AddCommand(createInitCommand(dependencies))
	return rootCommand
}

func createInitCommand(dependencies Dependencies) *cobra.Command {
	var global bool
	var force bool
	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, err := config.InitializeConfiguration(config.InitOptions{
				Filesystem:       dependencies.Filesystem,
				Target:           target,
				Force:            force,
				WorkingDirectory: dependencies.WorkingDirectory,
				HomeDirectory:    dependencies.HomeDirectory,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(dependencies.Stdout, configWrittenFormat, path)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&global, initGlobalFlagName, false, initGlobalFlagDescription)
	initCommand.Flags().BoolVar(&force, initForceFlagName, false, initForceFlagDescription)
	return initCommand
}

// runSettings is the configuration after files, environment, and flags are merged.
type runSettings struct {
	workingDirectory string
	outputPath       string
	maxSizeBytes     int64
	assumeYes        bool
	format           string
	ignoreFileName   string
	useGitignore     bool
	includeGit       bool
	skipEmpty        bool
	exclusions       []string
	workers          int
	timeout          time.Duration
	tokensEnabled    bool
	tokenModel       string
	copyToClipboard  bool
}

// resolveSettings layers defaults, configuration files, LLMCTX_* variables,
// and explicitly set flags, in that order.
func resolveSettings(command *cobra.Command, options rootOptions, dependencies Dependencies) (runSettings, error) {
	workingDirectory := dependencies.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return runSettings{}, fmt.Errorf(workingDirectoryError, err)
		}
		workingDirectory = currentDirectory
	}

	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		Filesystem:       dependencies.Filesystem,
		WorkingDirectory: workingDirectory,
		HomeDirectory:    dependencies.HomeDirectory,
		ExplicitFilePath: options.configPath,
	})
	if loadError != nil {
		return runSettings{}, loadError
	}
	merged := config.DefaultConfiguration().Merge(loaded).Merge(flagOverrides(command, options))
	if validationError := merged.Validate(); validationError != nil {
		return runSettings{}, validationError
	}

	return runSettings{
		workingDirectory: workingDirectory,
		outputPath:       merged.Output,
		maxSizeBytes:     *merged.MaxSize,
		assumeYes:        options.assumeYes,
		format:           merged.Format,
		ignoreFileName:   merged.IgnoreFile,
		useGitignore:     config.BoolValue(merged.UseGitignore),
		includeGit:       config.BoolValue(merged.IncludeGit),
		skipEmpty:        config.BoolValue(merged.SkipEmpty),
		exclusions:       append(append([]string{}, loaded.Exclude...), options.exclusionPatterns...),
		workers:          *merged.Workers,
		timeout:          options.timeout,
		tokensEnabled:    config.BoolValue(merged.Tokens.Enabled),
		tokenModel:       merged.Tokens.Model,
		copyToClipboard:  config.BoolValue(merged.Clipboard),
	}, nil
}

// flagOverrides returns only the flags the user actually set.
func flagOverrides(command *cobra.Command, options rootOptions) config.ApplicationConfiguration {
	flagSet := command.Flags()
	var overrides config.ApplicationConfiguration
	if flagSet.Changed(outputFlagName) {
		overrides.Output = options.outputPath
	}
	if flagSet.Changed(maxSizeFlagName) {
		maxSize := options.maxSizeBytes
		overrides.MaxSize = &maxSize
	}
	if flagSet.Changed(formatFlagName) {
		overrides.Format = strings.ToLower(options.format)
	}
	if flagSet.Changed(ignoreFileFlagName) {
		overrides.IgnoreFile = options.ignoreFileName
	}
	if flagSet.Changed(gitignoreFlagName) {
		overrides.UseGitignore = boolPointer(options.useGitignore)
	}
	if flagSet.Changed(includeGitFlagName) {
		overrides.IncludeGit = boolPointer(options.includeGit)
	}
	if flagSet.Changed(skipEmptyFlagName) {
		overrides.SkipEmpty = boolPointer(options.skipEmpty)
	}
	if flagSet.Changed(workersFlagName) {
		workers := options.workers
		overrides.Workers = &workers
	}
	if flagSet.Changed(tokensFlagName) {
		overrides.Tokens.Enabled = boolPointer(options.tokensEnabled)
	}
	if flagSet.Changed(modelFlagName) {
		overrides.Tokens.Model = options.tokenModel
	}
	if flagSet.Changed(copyFlagName) {
		overrides.Clipboard = boolPointer(options.copyToClipboard)
	}
	return overrides
}

func runContext(ctx context.Context, dependencies Dependencies, rootDirectory string, settings runSettings) error {
	logger := dependencies.Logger
	stdout := dependencies.Stdout

	absoluteRoot := rootDirectory
	if !filepath.IsAbs(absoluteRoot) {
		absoluteRoot = filepath.Join(settings.workingDirectory, rootDirectory)
	}
	absoluteRoot = filepath.Clean(absoluteRoot)
	outputPath := settings.outputPath
	if !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(settings.workingDirectory, outputPath)
	}

	rules, ruleDiagnostics, rulesError := config.BuildRuleSet(config.RuleOptions{
		Filesystem:     dependencies.Filesystem,
		RootDirectory:  absoluteRoot,
		IgnoreFileName: settings.ignoreFileName,
		UseGitignore:   settings.useGitignore,
		IncludeGit:     settings.includeGit,
		Exclusions:     settings.exclusions,
		OutputPath:     outputPath,
	})
	if rulesError != nil {
		return rulesError
	}
	for _, diagnostic := range ruleDiagnostics {
		logger.Warn(output.FormatDiagnostic(diagnostic))
	}

	if settings.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.timeout)
		defer cancel()
	}
	fileClassifier := classifier.New(dependencies.Filesystem, settings.maxSizeBytes)
	result, walkError := walker.Walk(ctx, absoluteRoot, rules, fileClassifier, walker.Options{
		Filesystem: dependencies.Filesystem,
		SkipEmpty:  settings.skipEmpty,
		Workers:    settings.workers,
		Warn: func(diagnostic types.Diagnostic) {
			logger.Warn(output.FormatDiagnostic(diagnostic))
		},
	})
	if walkError != nil {
		if !errors.Is(walkError, context.DeadlineExceeded) && !errors.Is(walkError, context.Canceled) {
			return walkError
		}
		logger.Warn("scan stopped early; continuing with a partial result", zap.Error(walkError))
	}
	result.Diagnostics = append(append([]types.Diagnostic{}, ruleDiagnostics...), result.Diagnostics...)

	planError := output.WritePlan(stdout, output.Plan{
		Result:         result,
		Rules:          rules,
		MaxSizeBytes:   settings.maxSizeBytes,
		OutputPath:     outputPath,
		IgnoreFileName: settings.ignoreFileName,
	})
	if planError != nil {
		return planError
	}
	if len(result.Included) == 0 {
		fmt.Fprintln(stdout, nothingToIncludeText)
		return nil
	}

	if !settings.assumeYes {
		proceed, confirmError := confirm(dependencies.Stdin, stdout)
		if confirmError != nil {
			return confirmError
		}
		if !proceed {
			fmt.Fprintln(stdout, abortedMessage)
			return nil
		}
	}

	assembler := output.Assembler{
		Filesystem: dependencies.Filesystem,
		Format:     settings.format,
		Logger:     logger,
		Now:        dependencies.Now,
	}
	if settings.tokensEnabled {
		counter, model, counterError := dependencies.NewCounter(tokenizer.Config{Model: settings.tokenModel})
		if counterError != nil {
			return counterError
		}
		assembler.Counter = counter
		assembler.Model = model
	}

	fmt.Fprintf(stdout, generatingFormat, outputPath)
	var document bytes.Buffer
	summary, assembleError := assembler.Assemble(&document, result)
	if assembleError != nil {
		return assembleError
	}
	if writeError := afero.WriteFile(dependencies.Filesystem, outputPath, document.Bytes(), 0o644); writeError != nil {
		return fmt.Errorf("write output file %s: %w", outputPath, writeError)
	}
	fmt.Fprintf(stdout, generatedFormat, outputPath)
	fmt.Fprintln(stdout, output.FormatSummaryLine(&summary))

	if settings.copyToClipboard {
		if copyError := dependencies.Clipboard.Copy(document.String()); copyError != nil {
			logger.Warn("failed to copy the context document to the clipboard", zap.Error(copyError))
		} else {
			logger.Info("context document copied to the clipboard")
		}
	}
	return nil
}

// confirm asks for a yes/no answer. End of input before any answer is an error.
func confirm(stdin io.Reader, stdout io.Writer) (bool, error) {
	fmt.Fprint(stdout, confirmationPrompt)
	answer, readError := bufio.NewReader(stdin).ReadString('\n')
	if readError != nil && !(errors.Is(readError, io.EOF) && answer != "") {
		fmt.Fprintln(stdout)
		return false, ErrConfirmationUnavailable
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func boolPointer(value bool) *bool {
	return &value
}
