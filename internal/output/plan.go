package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/llmctx/internal/ignore"
	"github.com/temirov/llmctx/internal/types"
)

const (
	// ExcludedDisplayLimit caps the excluded entries listed in a plan.
	ExcludedDisplayLimit = 20
	// IncludedDisplayLimit caps the included files listed in a plan.
	IncludedDisplayLimit = 30

	planRuleWidth = 60
	noneEntry     = "  (None)"
)

// Plan describes a finished walk for the confirmation screen.
type Plan struct {
	Result       types.WalkResult
	Rules        ignore.RuleSet
	MaxSizeBytes int64
	OutputPath   string
	// IgnoreFileName is mentioned in the closing hint.
	IgnoreFileName string
}

// WritePlan prints what will be excluded and included before the document is written.
func WritePlan(writer io.Writer, plan Plan) error {
	var builder strings.Builder
	rule := strings.Repeat("-", planRuleWidth)

	fmt.Fprintf(&builder, "\nScanning directory: %s\n", plan.Result.RootPath)
	builder.WriteString(rule + "\n")
	fmt.Fprintf(&builder, "Found %d total files/dirs.\n", countEntries(plan.Result.Root))
	fmt.Fprintf(&builder, "Applying %d ignore patterns (including defaults).\n", plan.Rules.Len())
	builder.WriteString(rule + "\n")

	excludedLines := make([]string, 0, len(plan.Result.Excluded))
	for _, entry := range plan.Result.Excluded {
		excludedLines = append(excludedLines, describeExclusion(entry, plan))
	}
	fmt.Fprintf(&builder, "\nFiles/Directories to be EXCLUDED (%d):\n", len(excludedLines))
	writeCappedList(&builder, excludedLines, ExcludedDisplayLimit)

	fmt.Fprintf(&builder, "\nFiles to be INCLUDED (%d):\n", len(plan.Result.Included))
	writeCappedList(&builder, plan.Result.Included, IncludedDisplayLimit)

	if len(plan.Result.Diagnostics) > 0 {
		fmt.Fprintf(&builder, "\nWarnings (%d):\n", len(plan.Result.Diagnostics))
		for _, diagnostic := range plan.Result.Diagnostics {
			fmt.Fprintf(&builder, "  - %s\n", FormatDiagnostic(diagnostic))
		}
	}

	builder.WriteString(rule + "\n")
	if plan.OutputPath != "" {
		fmt.Fprintf(&builder, "Output will be written to: %s\n", plan.OutputPath)
	}
	if plan.IgnoreFileName != "" {
		fmt.Fprintf(&builder, "\nTo exclude specific files/directories, create a '%s' file\n", plan.IgnoreFileName)
		fmt.Fprintf(&builder, "in '%s' with one pattern per line (e.g., '*.log', 'dist/').\n", plan.Result.RootPath)
	}
	builder.WriteString(rule + "\n")

	_, err := io.WriteString(writer, builder.String())
	return err
}

// FormatDiagnostic renders a diagnostic as a single human-readable line.
func FormatDiagnostic(diagnostic types.Diagnostic) string {
	location := diagnostic.Path
	if diagnostic.Line > 0 {
		location = fmt.Sprintf("%s:%d", diagnostic.Path, diagnostic.Line)
	}
	return fmt.Sprintf("%s %s: %s", diagnostic.Kind, location, diagnostic.Message)
}

func writeCappedList(builder *strings.Builder, lines []string, limit int) {
	if len(lines) == 0 {
		builder.WriteString(noneEntry + "\n")
		return
	}
	for index, line := range lines {
		if index == limit {
			fmt.Fprintf(builder, "  ... and %d more.\n", len(lines)-limit)
			return
		}
		fmt.Fprintf(builder, "  - %s\n", line)
	}
}

func describeExclusion(entry types.ExcludedEntry, plan Plan) string {
	if entry.IsDirectory {
		label := entry.RelativePath + "/ (Directory"
		if entry.Reason != types.ReasonPattern {
			label += ", " + reasonText(entry, plan)
		}
		return label + ")"
	}
	return fmt.Sprintf("%s (%s)", entry.RelativePath, reasonText(entry, plan))
}

func reasonText(entry types.ExcludedEntry, plan Plan) string {
	switch entry.Reason {
	case types.ReasonPattern:
		matchedRule, matched := plan.Rules.MatchingRule(ignore.CandidateEntry{RelativePath: entry.RelativePath, IsDirectory: entry.IsDirectory})
		if !matched {
			return "Ignored by pattern"
		}
		return fmt.Sprintf("Ignored by pattern '%s' from %s", matchedRule.String(), matchedRule.Source)
	case types.ReasonSize:
		return fmt.Sprintf("Exceeds max size %d bytes", plan.MaxSizeBytes)
	case types.ReasonBinary:
		return "Skipped: Likely binary"
	case types.ReasonEmpty:
		return "Empty file"
	case types.ReasonAccess:
		return "Error accessing"
	case types.ReasonCycle:
		return "Symlink cycle"
	case types.ReasonDeadline:
		return "Not scanned before the deadline"
	default:
		return entry.Reason
	}
}

func countEntries(root *types.TreeNode) int {
	if root == nil {
		return 0
	}
	count := 0
	stack := append([]*types.TreeNode{}, root.Children...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, node.Children...)
	}
	return count
}
