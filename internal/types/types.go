// Package types defines every cross‑package data structure used by the llmctx CLI.
package types

import "time"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	FormatText = "text"
	FormatJSON = "json"
)

// Exclusion reasons recorded on tree nodes and in the exclusion report.
const (
	ReasonPattern  = "pattern"
	ReasonSize     = "size"
	ReasonBinary   = "binary"
	ReasonEmpty    = "empty"
	ReasonAccess   = "access"
	ReasonCycle    = "cycle"
	ReasonDeadline = "deadline"
)

// DiagnosticKind classifies a recoverable problem found while compiling rules or walking.
type DiagnosticKind string

const (
	DiagnosticMalformedPatternLine DiagnosticKind = "MalformedPatternLine"
	DiagnosticPathAccessError      DiagnosticKind = "PathAccessError"
	DiagnosticSymlinkCycleDetected DiagnosticKind = "SymlinkCycleDetected"
	DiagnosticDeadlineExceeded     DiagnosticKind = "DeadlineExceeded"
)

// Diagnostic is a non-fatal warning attached to a compile or walk result.
// Line is set only for pattern diagnostics and is 1-indexed.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Path    string         `json:"path"`
	Line    int            `json:"line,omitempty"`
	Message string         `json:"message"`
}

// TreeNode mirrors one visited filesystem entry. Children are ordered by name.
type TreeNode struct {
	Name         string      `json:"name"`
	RelativePath string      `json:"path"`
	IsDirectory  bool        `json:"isDirectory"`
	Included     bool        `json:"included"`
	Reason       string      `json:"reason,omitempty"`
	SizeBytes    int64       `json:"sizeBytes,omitempty"`
	Children     []*TreeNode `json:"children,omitempty"`
}

// ExcludedEntry names a path left out of the artifact and why.
type ExcludedEntry struct {
	RelativePath string `json:"path"`
	IsDirectory  bool   `json:"isDirectory"`
	Reason       string `json:"reason"`
}

// WalkResult is everything the walker hands to the assembler.
type WalkResult struct {
	RootPath    string
	Root        *TreeNode
	Included    []string
	Excluded    []ExcludedEntry
	Diagnostics []Diagnostic
}

// FileOutput represents one file written into the context artifact.
type FileOutput struct {
	Path      string `json:"path"`
	Language  string `json:"language,omitempty"`
	Content   string `json:"content"`
	SizeBytes int64  `json:"sizeBytes"`
	Tokens    int    `json:"tokens,omitempty"`
	Error     string `json:"error,omitempty"`
}

// OutputSummary captures aggregate information about rendered files.
type OutputSummary struct {
	TotalFiles  int    `json:"totalFiles"`
	TotalBytes  int64  `json:"totalBytes"`
	TotalSize   string `json:"totalSize"`
	TotalTokens int    `json:"totalTokens,omitempty"`
	Model       string `json:"model,omitempty"`
}

// ContextDocument is the JSON form of the artifact.
type ContextDocument struct {
	Root        string        `json:"root"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Tree        *TreeNode     `json:"tree"`
	Files       []FileOutput  `json:"files"`
	Summary     OutputSummary `json:"summary"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
}
