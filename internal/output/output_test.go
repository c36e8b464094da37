package output_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/temirov/llmctx/internal/classifier"
	"github.com/temirov/llmctx/internal/ignore"
	"github.com/temirov/llmctx/internal/output"
	"github.com/temirov/llmctx/internal/types"
	"github.com/temirov/llmctx/internal/utils"
	"github.com/temirov/llmctx/internal/walker"
)

const sampleRoot = "/project"

var sampleGeneratedAt = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

type runeCounter struct{}

func (runeCounter) Name() string { return "runes" }

func (runeCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

func sampleWalk(testingInstance *testing.T, files map[string]string, patterns ...string) (afero.Fs, types.WalkResult, ignore.RuleSet) {
	testingInstance.Helper()
	filesystem := afero.NewMemMapFs()
	for relativePath, content := range files {
		absolutePath := filepath.Join(sampleRoot, relativePath)
		if err := filesystem.MkdirAll(filepath.Dir(absolutePath), 0o755); err != nil {
			testingInstance.Fatalf("mkdir: %v", err)
		}
		if err := afero.WriteFile(filesystem, absolutePath, []byte(content), 0o644); err != nil {
			testingInstance.Fatalf("write %s: %v", relativePath, err)
		}
	}
	compiler := ignore.NewCompiler(ignore.DefaultRuleSet(false))
	compiler.AddLines(utils.IgnoreFileName, patterns)
	rules := compiler.RuleSet()
	result, err := walker.Walk(context.Background(), sampleRoot, rules, classifier.New(filesystem, 0), walker.Options{Filesystem: filesystem, SkipEmpty: true})
	if err != nil {
		testingInstance.Fatalf("walk: %v", err)
	}
	return filesystem, result, rules
}

func fixedNow() time.Time { return sampleGeneratedAt }

func TestAssembleTextDocument(testingInstance *testing.T) {
	filesystem, result, _ := sampleWalk(testingInstance, map[string]string{
		"main.go":     "package main\n\nfunc main() {}\n",
		"README.md":   "# Readme\n",
		"sub/util.py": "\n  x = 1  \n\n",
		"debug.log":   "noise",
	}, "*.log")

	var buffer bytes.Buffer
	assembler := output.Assembler{Filesystem: filesystem, Format: types.FormatText, Now: fixedNow}
	summary, err := assembler.Assemble(&buffer, result)
	if err != nil {
		testingInstance.Fatalf("Assemble: %v", err)
	}

	rule := strings.Repeat("=", 80)
	expected := "# Project Context for: /project\n" +
		"# Generated on: " + utils.FormatGeneratedAt(sampleGeneratedAt) + "\n\n" +
		rule + "\n== Directory Structure ==\n" + rule + "\n\n" +
		"```\n" +
		"project/\n" +
		"├── sub/\n" +
		"│   └── util.py\n" +
		"├── README.md\n" +
		"└── main.go\n" +
		"```\n\n" +
		rule + "\n== File Contents ==\n" + rule + "\n\n" +
		"--- START FILE: README.md ---\n```markdown\n# Readme\n```\n--- END FILE: README.md ---\n\n" +
		"--- START FILE: main.go ---\n```go\npackage main\n\nfunc main() {}\n```\n--- END FILE: main.go ---\n\n" +
		"--- START FILE: sub/util.py ---\n```python\nx = 1\n```\n--- END FILE: sub/util.py ---\n\n"
	if buffer.String() != expected {
		testingInstance.Fatalf("unexpected document:\n%s", buffer.String())
	}
	if summary.TotalFiles != 3 || summary.TotalTokens != 0 || summary.Model != "" {
		testingInstance.Fatalf("unexpected summary %+v", summary)
	}
}

func TestAssembleRendersReadErrors(testingInstance *testing.T) {
	filesystem := afero.NewMemMapFs()
	result := types.WalkResult{
		RootPath: sampleRoot,
		Root: &types.TreeNode{Name: "project", RelativePath: ".", IsDirectory: true, Included: true, Children: []*types.TreeNode{
			{Name: "gone.txt", RelativePath: "gone.txt", Included: true},
		}},
		Included: []string{"gone.txt"},
	}
	var buffer bytes.Buffer
	summary, err := output.Assembler{Filesystem: filesystem, Now: fixedNow}.Assemble(&buffer, result)
	if err != nil {
		testingInstance.Fatalf("Assemble: %v", err)
	}
	document := buffer.String()
	if !strings.Contains(document, "--- ERROR READING FILE: gone.txt ---\nError: ") {
		testingInstance.Fatalf("expected an error block, got:\n%s", document)
	}
	if !strings.Contains(document, "--- END ERROR: gone.txt ---\n") {
		testingInstance.Fatalf("expected the error block to be closed")
	}
	if summary.TotalFiles != 0 {
		testingInstance.Fatalf("expected unreadable files to be left out of the summary, got %+v", summary)
	}
}

func TestAssembleJSONDocument(testingInstance *testing.T) {
	filesystem, result, _ := sampleWalk(testingInstance, map[string]string{
		"app.go":         "package app",
		"build/out.bin":  "x",
		"docs/guide.md":  "guide",
		"docs/empty.txt": "",
	}, "build/")

	var buffer bytes.Buffer
	assembler := output.Assembler{Filesystem: filesystem, Format: types.FormatJSON, Counter: runeCounter{}, Model: "runes", Now: fixedNow}
	summary, err := assembler.Assemble(&buffer, result)
	if err != nil {
		testingInstance.Fatalf("Assemble: %v", err)
	}

	var document types.ContextDocument
	if err := json.Unmarshal(buffer.Bytes(), &document); err != nil {
		testingInstance.Fatalf("decode: %v", err)
	}
	if document.Root != sampleRoot || !document.GeneratedAt.Equal(sampleGeneratedAt) {
		testingInstance.Fatalf("unexpected header %s %v", document.Root, document.GeneratedAt)
	}
	if len(document.Files) != 2 || document.Files[0].Path != "app.go" || document.Files[1].Language != "markdown" {
		testingInstance.Fatalf("unexpected files %+v", document.Files)
	}
	if document.Files[0].Tokens != len("package app") {
		testingInstance.Fatalf("expected per-file tokens, got %d", document.Files[0].Tokens)
	}
	expectedTokens := len("package app") + len("guide")
	if summary.TotalTokens != expectedTokens || document.Summary.TotalTokens != expectedTokens || document.Summary.Model != "runes" {
		testingInstance.Fatalf("unexpected summary %+v", document.Summary)
	}
	for _, child := range document.Tree.Children {
		if child.Name == "build" {
			testingInstance.Fatalf("expected excluded directories to be pruned from the tree")
		}
		if child.Name == "docs" && len(child.Children) != 1 {
			testingInstance.Fatalf("expected only guide.md under docs, got %+v", child.Children)
		}
	}
}

func TestAssembleRejectsUnknownFormat(testingInstance *testing.T) {
	_, err := output.Assembler{Format: "xml"}.Assemble(&bytes.Buffer{}, types.WalkResult{Root: &types.TreeNode{Name: "x", IsDirectory: true, Included: true}})
	if err == nil {
		testingInstance.Fatalf("expected an error for an unknown format")
	}
}

func TestIncludedTreeKeepsRootWhenEmpty(testingInstance *testing.T) {
	root := &types.TreeNode{Name: "project", RelativePath: ".", IsDirectory: true, Included: true, Children: []*types.TreeNode{
		{Name: "empty", RelativePath: "empty", IsDirectory: true, Included: true},
		{Name: "skip.log", RelativePath: "skip.log", Reason: types.ReasonPattern},
	}}
	pruned := output.IncludedTree(root)
	if pruned == nil || pruned.Name != "project" || len(pruned.Children) != 0 {
		testingInstance.Fatalf("unexpected pruned tree %+v", pruned)
	}
	if len(root.Children) != 2 {
		testingInstance.Fatalf("expected the input tree to be left untouched")
	}
	var buffer bytes.Buffer
	if err := output.WriteTree(&buffer, pruned); err != nil {
		testingInstance.Fatalf("WriteTree: %v", err)
	}
	if buffer.String() != "project/\n" {
		testingInstance.Fatalf("unexpected tree %q", buffer.String())
	}
}

func TestLanguageHint(testingInstance *testing.T) {
	testCases := map[string]string{
		"main.go":               "go",
		"web/App.TSX":           "typescript",
		"Dockerfile":            "dockerfile",
		"deploy/app.dockerfile": "dockerfile",
		"config.yml":            "yaml",
		"Makefile":              "",
		"notes":                 "",
	}
	for path, expected := range testCases {
		if actual := output.LanguageHint(path); actual != expected {
			testingInstance.Errorf("%s: expected %q, got %q", path, expected, actual)
		}
	}
}

func TestFormatSummaryLine(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		summary  *types.OutputSummary
		expected string
	}{
		{name: "nil", summary: nil, expected: "Summary: 0 files, 0 B"},
		{name: "single file", summary: &types.OutputSummary{TotalFiles: 1, TotalBytes: 512}, expected: "Summary: 1 file, 512 B"},
		{name: "tokens and model", summary: &types.OutputSummary{TotalFiles: 2, TotalSize: "1.5 KiB", TotalTokens: 42, Model: "gpt-4o"}, expected: "Summary: 2 files, 1.5 KiB, 42 tokens (model: gpt-4o)"},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(testingInstance *testing.T) {
			if actual := output.FormatSummaryLine(testCase.summary); actual != testCase.expected {
				testingInstance.Fatalf("expected %q, got %q", testCase.expected, actual)
			}
		})
	}
}

func TestWritePlanListsAndCapsEntries(testingInstance *testing.T) {
	files := map[string]string{"keep.go": "package keep", "blob.bin": "\x00\x01"}
	for index := 0; index < 25; index++ {
		files[fmt.Sprintf("logs/%02d.log", index)] = "line"
	}
	for index := 0; index < 35; index++ {
		files[fmt.Sprintf("src/file%02d.go", index)] = "package src"
	}
	_, result, rules := sampleWalk(testingInstance, files, "*.log")

	var buffer bytes.Buffer
	plan := output.Plan{Result: result, Rules: rules, MaxSizeBytes: classifier.DefaultMaxSizeBytes, OutputPath: "/out/" + utils.DefaultOutputFileName, IgnoreFileName: utils.IgnoreFileName}
	if err := output.WritePlan(&buffer, plan); err != nil {
		testingInstance.Fatalf("WritePlan: %v", err)
	}
	text := buffer.String()
	expectedFragments := []string{
		"Scanning directory: /project\n",
		"Found 64 total files/dirs.\n",
		fmt.Sprintf("Applying %d ignore patterns (including defaults).\n", rules.Len()),
		"Files/Directories to be EXCLUDED (26):\n",
		"  - blob.bin (Skipped: Likely binary)\n",
		"  - logs/00.log (Ignored by pattern '*.log' from .llmignore)\n",
		"  ... and 6 more.\n",
		"Files to be INCLUDED (36):\n",
		"  ... and 6 more.\n",
		"Output will be written to: /out/llm_context.txt\n",
		"create a '.llmignore' file\n",
	}
	for _, fragment := range expectedFragments {
		if !strings.Contains(text, fragment) {
			testingInstance.Fatalf("plan is missing %q:\n%s", fragment, text)
		}
	}
	if strings.Contains(text, "logs/24.log") {
		testingInstance.Fatalf("expected the excluded list to be capped")
	}
}

func TestWritePlanShowsNoneAndWarnings(testingInstance *testing.T) {
	result := types.WalkResult{
		RootPath:    sampleRoot,
		Root:        &types.TreeNode{Name: "project", RelativePath: ".", IsDirectory: true, Included: true},
		Diagnostics: []types.Diagnostic{{Kind: types.DiagnosticMalformedPatternLine, Path: utils.IgnoreFileName, Line: 3, Message: "malformed pattern line"}},
	}
	var buffer bytes.Buffer
	if err := output.WritePlan(&buffer, output.Plan{Result: result}); err != nil {
		testingInstance.Fatalf("WritePlan: %v", err)
	}
	text := buffer.String()
	if strings.Count(text, "  (None)\n") != 2 {
		testingInstance.Fatalf("expected both lists to read (None):\n%s", text)
	}
	if !strings.Contains(text, "  - MalformedPatternLine .llmignore:3: malformed pattern line\n") {
		testingInstance.Fatalf("expected the diagnostic to be listed:\n%s", text)
	}
}
