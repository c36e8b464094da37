package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/temirov/llmctx/internal/ignore"
	"github.com/temirov/llmctx/internal/types"
	"github.com/temirov/llmctx/internal/utils"
)

const projectRoot = "/work/project"

// writeTestFile creates a file with the specified content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filesystem afero.Fs, filePath string, content string) {
	testingHandle.Helper()
	if mkdirError := filesystem.MkdirAll(filepath.Dir(filePath), 0o755); mkdirError != nil {
		testingHandle.Fatalf("failed to create directory for %s: %v", filePath, mkdirError)
	}
	if writeError := afero.WriteFile(filesystem, filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

func TestLoadIgnoreTextMissingFile(testingHandle *testing.T) {
	text, found, loadError := LoadIgnoreText(afero.NewMemMapFs(), filepath.Join(projectRoot, utils.IgnoreFileName))
	if loadError != nil || found || text != "" {
		testingHandle.Fatalf("expected a silent miss, got %q found=%t err=%v", text, found, loadError)
	}
}

func TestBuildRuleSetOrdersSources(testingHandle *testing.T) {
	filesystem := afero.NewMemMapFs()
	writeTestFile(testingHandle, filesystem, filepath.Join(projectRoot, utils.GitIgnoreFileName), "*.log\nvendor/\n")
	writeTestFile(testingHandle, filesystem, filepath.Join(projectRoot, utils.IgnoreFileName), "!keep.log\n")

	ruleSet, diagnostics, buildError := BuildRuleSet(RuleOptions{
		Filesystem:     filesystem,
		RootDirectory:  projectRoot,
		IgnoreFileName: utils.IgnoreFileName,
		UseGitignore:   true,
		Exclusions:     []string{"secrets.txt", "secrets.txt", " "},
		OutputPath:     filepath.Join(projectRoot, "out", utils.DefaultOutputFileName),
	})
	if buildError != nil {
		testingHandle.Fatalf("BuildRuleSet failed: %v", buildError)
	}
	if len(diagnostics) != 0 {
		testingHandle.Fatalf("unexpected diagnostics: %+v", diagnostics)
	}

	rules := ruleSet.Rules()
	defaultCount := len(ignore.DefaultPatterns(false))
	expectedTail := []struct {
		source  string
		pattern string
	}{
		{source: utils.GitIgnoreFileName, pattern: "*.log"},
		{source: utils.GitIgnoreFileName, pattern: "vendor"},
		{source: utils.IgnoreFileName, pattern: "keep.log"},
		{source: ExclusionSource, pattern: "secrets.txt"},
		{source: ExclusionSource, pattern: "secrets.txt"},
		{source: OutputFileSource, pattern: "out/" + utils.DefaultOutputFileName},
	}
	if len(rules) != defaultCount+len(expectedTail) {
		testingHandle.Fatalf("expected %d rules, got %d", defaultCount+len(expectedTail), len(rules))
	}
	for index, expected := range expectedTail {
		rule := rules[defaultCount+index]
		if rule.Source != expected.source || rule.Pattern != expected.pattern {
			testingHandle.Fatalf("rule %d: expected %s from %s, got %+v", index, expected.pattern, expected.source, rule)
		}
	}
	if ruleSet.Excludes("keep.log", false) {
		testingHandle.Fatalf("expected .llmignore negation to override .gitignore")
	}
	if !ruleSet.Excludes("out/"+utils.DefaultOutputFileName, false) {
		testingHandle.Fatalf("expected the output file to be excluded")
	}
	if ruleSet.Excludes("nested/out/"+utils.DefaultOutputFileName, false) {
		testingHandle.Fatalf("expected the output rule to be anchored")
	}
}

func TestBuildRuleSetSkipsGitignoreUnlessEnabled(testingHandle *testing.T) {
	filesystem := afero.NewMemMapFs()
	writeTestFile(testingHandle, filesystem, filepath.Join(projectRoot, utils.GitIgnoreFileName), "*.log\n")

	ruleSet, _, buildError := BuildRuleSet(RuleOptions{Filesystem: filesystem, RootDirectory: projectRoot, IgnoreFileName: utils.IgnoreFileName})
	if buildError != nil {
		testingHandle.Fatalf("BuildRuleSet failed: %v", buildError)
	}
	if ruleSet.Excludes("debug.log", false) {
		testingHandle.Fatalf("expected .gitignore to be ignored by default")
	}
	if ruleSet.Len() != len(ignore.DefaultPatterns(false)) {
		testingHandle.Fatalf("expected only default rules, got %d", ruleSet.Len())
	}
}

func TestBuildRuleSetOutputOutsideRootAddsNoRule(testingHandle *testing.T) {
	ruleSet, _, buildError := BuildRuleSet(RuleOptions{
		Filesystem:    afero.NewMemMapFs(),
		RootDirectory: projectRoot,
		IncludeGit:    true,
		OutputPath:    "/tmp/" + utils.DefaultOutputFileName,
	})
	if buildError != nil {
		testingHandle.Fatalf("BuildRuleSet failed: %v", buildError)
	}
	if ruleSet.Len() != len(ignore.DefaultPatterns(true)) {
		testingHandle.Fatalf("expected no output rule, got %d rules", ruleSet.Len())
	}
	if ruleSet.Excludes(utils.GitDirectoryName, true) {
		testingHandle.Fatalf("expected .git to be kept with IncludeGit")
	}
}

func TestBuildRuleSetReportsMalformedLines(testingHandle *testing.T) {
	filesystem := afero.NewMemMapFs()
	customIgnore := filepath.Join(projectRoot, "rules", "custom.ignore")
	writeTestFile(testingHandle, filesystem, customIgnore, "*.tmp\n!\n")

	ruleSet, diagnostics, buildError := BuildRuleSet(RuleOptions{Filesystem: filesystem, RootDirectory: projectRoot, IgnoreFileName: customIgnore})
	if buildError != nil {
		testingHandle.Fatalf("BuildRuleSet failed: %v", buildError)
	}
	if len(diagnostics) != 1 || diagnostics[0].Kind != types.DiagnosticMalformedPatternLine || diagnostics[0].Line != 2 {
		testingHandle.Fatalf("unexpected diagnostics: %+v", diagnostics)
	}
	if diagnostics[0].Path != "custom.ignore" {
		testingHandle.Fatalf("expected diagnostic source custom.ignore, got %s", diagnostics[0].Path)
	}
	if !ruleSet.Excludes("a.tmp", false) {
		testingHandle.Fatalf("expected the well formed rule to survive")
	}
}

func TestBuildRuleSetKeepsRepeatedExclusionsInOrder(testingHandle *testing.T) {
	ruleSet, _, buildError := BuildRuleSet(RuleOptions{
		Filesystem:    afero.NewMemMapFs(),
		RootDirectory: projectRoot,
		Exclusions:    []string{"*.md", "!README.md", "*.md"},
	})
	if buildError != nil {
		testingHandle.Fatalf("BuildRuleSet failed: %v", buildError)
	}
	if !ruleSet.Excludes("README.md", false) {
		testingHandle.Fatalf("expected the final *.md to exclude README.md")
	}
	if ruleSet.Len() != len(ignore.DefaultPatterns(false))+3 {
		testingHandle.Fatalf("expected all three exclusions to be compiled, got %d rules", ruleSet.Len())
	}
}

func TestBuildRuleSetEscapesOutputFileName(testingHandle *testing.T) {
	for _, outputName := range []string{"ctx[1].txt", "out?.txt", "all*.txt"} {
		ruleSet, diagnostics, buildError := BuildRuleSet(RuleOptions{
			Filesystem:    afero.NewMemMapFs(),
			RootDirectory: projectRoot,
			OutputPath:    filepath.Join(projectRoot, outputName),
		})
		if buildError != nil || len(diagnostics) != 0 {
			testingHandle.Fatalf("%s: unexpected failure %v %+v", outputName, buildError, diagnostics)
		}
		if !ruleSet.Excludes(outputName, false) {
			testingHandle.Fatalf("%s: expected the output file to exclude itself", outputName)
		}
	}
	ruleSet, _, _ := BuildRuleSet(RuleOptions{
		Filesystem:    afero.NewMemMapFs(),
		RootDirectory: projectRoot,
		OutputPath:    filepath.Join(projectRoot, "all*.txt"),
	})
	if ruleSet.Excludes("all_notes.txt", false) {
		testingHandle.Fatalf("expected the output rule to match only the output file")
	}
}
