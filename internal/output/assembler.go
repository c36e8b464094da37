package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/llmctx/internal/tokenizer"
	"github.com/temirov/llmctx/internal/types"
	"github.com/temirov/llmctx/internal/utils"
)

const (
	sectionRuleWidth       = 80
	sectionRuleCharacter   = "="
	directorySectionTitle  = "== Directory Structure =="
	fileSectionTitle       = "== File Contents =="
	codeFence              = "```"
	projectHeaderFormat    = "# Project Context for: %s\n"
	generatedHeaderFormat  = "# Generated on: %s\n\n"
	startFileFormat        = "--- START FILE: %s ---\n"
	endFileFormat          = "--- END FILE: %s ---\n\n"
	startReadErrorFormat   = "--- ERROR READING FILE: %s ---\n"
	readErrorMessageFormat = "Error: %s\n"
	endReadErrorFormat     = "--- END ERROR: %s ---\n\n"
)

// Assembler turns a walk result into the context document.
type Assembler struct {
	Filesystem afero.Fs
	// Format is types.FormatText or types.FormatJSON.
	Format string
	// Counter, when set, counts tokens per file.
	Counter tokenizer.Counter
	Model   string
	Logger  *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Assemble reads every included file and writes the document to writer.
// A file that cannot be read is rendered as an error block and logged; only
// failures writing the document are returned.
func (assembler Assembler) Assemble(writer io.Writer, result types.WalkResult) (types.OutputSummary, error) {
	filesystem := assembler.Filesystem
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	logger := assembler.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := assembler.Now
	if now == nil {
		now = time.Now
	}

	files := make([]types.FileOutput, 0, len(result.Included))
	for _, relativePath := range result.Included {
		files = append(files, assembler.readFile(filesystem, logger, result.RootPath, relativePath))
	}
	summary := computeSummary(files, assembler.Model)
	generatedAt := now()

	var buffer bytes.Buffer
	switch assembler.Format {
	case "", types.FormatText:
		if err := writeText(&buffer, result, files, generatedAt); err != nil {
			return types.OutputSummary{}, err
		}
	case types.FormatJSON:
		document := types.ContextDocument{
			Root:        result.RootPath,
			GeneratedAt: generatedAt,
			Tree:        IncludedTree(result.Root),
			Files:       files,
			Summary:     summary,
			Diagnostics: result.Diagnostics,
		}
		encoded, err := json.MarshalIndent(document, indentPrefix, indentSpacer)
		if err != nil {
			return types.OutputSummary{}, fmt.Errorf("encode context document: %w", err)
		}
		buffer.Write(encoded)
		buffer.WriteString("\n")
	default:
		return types.OutputSummary{}, fmt.Errorf("unsupported format %q", assembler.Format)
	}

	if _, err := writer.Write(buffer.Bytes()); err != nil {
		return types.OutputSummary{}, fmt.Errorf("write context document: %w", err)
	}
	return summary, nil
}

func (assembler Assembler) readFile(filesystem afero.Fs, logger *zap.Logger, rootPath string, relativePath string) types.FileOutput {
	file := types.FileOutput{Path: relativePath, Language: LanguageHint(relativePath)}
	absolutePath := filepath.Join(rootPath, filepath.FromSlash(relativePath))
	data, readErr := afero.ReadFile(filesystem, absolutePath)
	if readErr != nil {
		file.Error = readErr.Error()
		logger.Warn("could not read file", zap.String("path", relativePath), zap.Error(readErr))
		return file
	}
	file.SizeBytes = int64(len(data))
	file.Content = strings.TrimSpace(string(data))
	if assembler.Counter != nil {
		counted, countErr := tokenizer.CountBytes(assembler.Counter, []byte(file.Content))
		if countErr != nil {
			logger.Warn("token counting failed", zap.String("path", relativePath), zap.Error(countErr))
		} else {
			file.Tokens = counted.Tokens
		}
	}
	return file
}

func writeText(buffer *bytes.Buffer, result types.WalkResult, files []types.FileOutput, generatedAt time.Time) error {
	fmt.Fprintf(buffer, projectHeaderFormat, result.RootPath)
	fmt.Fprintf(buffer, generatedHeaderFormat, utils.FormatGeneratedAt(generatedAt))

	writeSectionHeader(buffer, directorySectionTitle)
	buffer.WriteString(codeFence + "\n")
	if err := WriteTree(buffer, IncludedTree(result.Root)); err != nil {
		return err
	}
	buffer.WriteString(codeFence + "\n\n")

	writeSectionHeader(buffer, fileSectionTitle)
	for _, file := range files {
		if file.Error != "" {
			fmt.Fprintf(buffer, startReadErrorFormat, file.Path)
			fmt.Fprintf(buffer, readErrorMessageFormat, file.Error)
			fmt.Fprintf(buffer, endReadErrorFormat, file.Path)
			continue
		}
		fmt.Fprintf(buffer, startFileFormat, file.Path)
		buffer.WriteString(codeFence + file.Language + "\n")
		buffer.WriteString(file.Content)
		buffer.WriteString("\n" + codeFence + "\n")
		fmt.Fprintf(buffer, endFileFormat, file.Path)
	}
	return nil
}

func writeSectionHeader(buffer *bytes.Buffer, title string) {
	rule := strings.Repeat(sectionRuleCharacter, sectionRuleWidth)
	buffer.WriteString(rule + "\n")
	buffer.WriteString(title + "\n")
	buffer.WriteString(rule + "\n\n")
}
