// Package output assembles the context document and renders the scan plan.
package output

import (
	"fmt"

	"github.com/temirov/llmctx/internal/types"
	"github.com/temirov/llmctx/internal/utils"
)

const (
	indentPrefix = ""
	indentSpacer = "  "
)

// FormatSummaryLine formats an OutputSummary into a one-line description.
func FormatSummaryLine(summary *types.OutputSummary) string {
	if summary == nil {
		summary = &types.OutputSummary{}
	}
	label := "files"
	if summary.TotalFiles == 1 {
		label = "file"
	}
	size := summary.TotalSize
	if size == "" {
		size = utils.FormatByteSize(summary.TotalBytes)
	}
	extra := ""
	if summary.TotalTokens > 0 {
		extra = fmt.Sprintf(", %d tokens", summary.TotalTokens)
	}
	modelSuffix := ""
	if summary.Model != "" {
		modelSuffix = fmt.Sprintf(" (model: %s)", summary.Model)
	}
	return fmt.Sprintf("Summary: %d %s, %s%s%s", summary.TotalFiles, label, size, extra, modelSuffix)
}

// computeSummary aggregates counts over the files that were read successfully.
func computeSummary(files []types.FileOutput, model string) types.OutputSummary {
	var summary types.OutputSummary
	for _, file := range files {
		if file.Error != "" {
			continue
		}
		summary.TotalFiles++
		summary.TotalBytes += file.SizeBytes
		summary.TotalTokens += file.Tokens
	}
	summary.TotalSize = utils.FormatByteSize(summary.TotalBytes)
	if summary.TotalTokens > 0 {
		summary.Model = model
	}
	return summary
}
