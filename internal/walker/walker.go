// Package walker traverses a scan root, applies ignore rules and the file
// classifier to every entry, and builds the tree and included-path list.
package walker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/llmctx/internal/classifier"
	"github.com/temirov/llmctx/internal/ignore"
	"github.com/temirov/llmctx/internal/types"
)

const rootRelativePath = "."

var (
	// ErrRootNotFound is returned when the scan root does not exist.
	ErrRootNotFound = errors.New("scan root not found")
	// ErrRootNotDirectory is returned when the scan root is a file.
	ErrRootNotDirectory = errors.New("scan root is not a directory")
	// ErrPathAccess marks an entry that could not be read.
	ErrPathAccess = errors.New("path access error")
	// ErrSymlinkCycle marks a directory whose real path was already visited.
	ErrSymlinkCycle = errors.New("symlink cycle detected")
)

// Options tunes a walk. The zero value walks the OS filesystem sequentially.
type Options struct {
	Filesystem afero.Fs
	// RealPath resolves symlinks for cycle detection. It defaults to
	// filepath.EvalSymlinks on the OS filesystem and filepath.Clean elsewhere.
	RealPath func(path string) (string, error)
	// SkipEmpty excludes zero-byte files.
	SkipEmpty bool
	// Workers above one classify the files of each directory concurrently.
	Workers int
	// Warn receives every diagnostic as it is recorded.
	Warn func(types.Diagnostic)
}

type pendingDirectory struct {
	node         *types.TreeNode
	absolutePath string
}

type classificationJob struct {
	node         *types.TreeNode
	absolutePath string
}

type walkState struct {
	rules       ignore.RuleSet
	classifier  classifier.Classifier
	options     Options
	visited     map[string]struct{}
	diagnostics []types.Diagnostic
}

// Walk traverses root depth-first with children in lexicographic order.
// Per-entry problems become diagnostics; only a missing or unusable root is
// returned as an error. When ctx is done the partial result is returned
// together with the context error.
func Walk(ctx context.Context, root string, rules ignore.RuleSet, fileClassifier classifier.Classifier, options Options) (types.WalkResult, error) {
	if options.Filesystem == nil {
		options.Filesystem = afero.NewOsFs()
	}
	if options.RealPath == nil {
		options.RealPath = defaultRealPath(options.Filesystem)
	}
	if options.Warn == nil {
		options.Warn = func(types.Diagnostic) {}
	}

	absoluteRoot, absoluteError := filepath.Abs(root)
	if absoluteError != nil {
		return types.WalkResult{}, fmt.Errorf("resolve scan root %s: %w", root, absoluteError)
	}
	rootInformation, statError := options.Filesystem.Stat(absoluteRoot)
	if statError != nil {
		if errors.Is(statError, os.ErrNotExist) {
			return types.WalkResult{}, fmt.Errorf("%w: %s", ErrRootNotFound, absoluteRoot)
		}
		return types.WalkResult{}, fmt.Errorf("%w: stat %s: %v", ErrPathAccess, absoluteRoot, statError)
	}
	if !rootInformation.IsDir() {
		return types.WalkResult{}, fmt.Errorf("%w: %s", ErrRootNotDirectory, absoluteRoot)
	}

	state := &walkState{
		rules:      rules,
		classifier: fileClassifier,
		options:    options,
		visited:    map[string]struct{}{},
	}
	if realRoot, realError := options.RealPath(absoluteRoot); realError == nil {
		state.visited[realRoot] = struct{}{}
	}

	rootNode := &types.TreeNode{
		Name:         filepath.Base(absoluteRoot),
		RelativePath: rootRelativePath,
		IsDirectory:  true,
		Included:     true,
	}
	rootEntries, readError := state.readDirectory(absoluteRoot)
	if readError != nil {
		return types.WalkResult{}, fmt.Errorf("%w: read %s: %v", ErrPathAccess, absoluteRoot, readError)
	}

	walkError := state.walk(ctx, pendingDirectory{node: rootNode, absolutePath: absoluteRoot}, rootEntries)

	result := types.WalkResult{
		RootPath:    absoluteRoot,
		Root:        rootNode,
		Diagnostics: state.diagnostics,
	}
	result.Included, result.Excluded = flatten(rootNode)
	return result, walkError
}

func (state *walkState) walk(ctx context.Context, root pendingDirectory, rootEntries []os.FileInfo) error {
	stack := []pendingDirectory{root}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries := rootEntries
		if current.node != root.node {
			var readError error
			entries, readError = state.readDirectory(current.absolutePath)
			if readError != nil {
				state.exclude(current.node, types.ReasonAccess)
				state.record(types.DiagnosticPathAccessError, current.node.RelativePath, fmt.Sprintf("%v: %v", ErrPathAccess, readError))
				continue
			}
		}

		subdirectories, interrupted := state.expand(ctx, current, entries)
		if interrupted {
			for _, pending := range stack {
				state.exclude(pending.node, types.ReasonDeadline)
			}
			for _, pending := range subdirectories {
				state.exclude(pending.node, types.ReasonDeadline)
			}
			state.record(types.DiagnosticDeadlineExceeded, current.node.RelativePath, ctx.Err().Error())
			return ctx.Err()
		}
		for index := len(subdirectories) - 1; index >= 0; index-- {
			stack = append(stack, subdirectories[index])
		}
	}
	return nil
}

// expand builds the children of one directory. It returns the subdirectories
// to descend into, in name order, and whether ctx ended the walk.
func (state *walkState) expand(ctx context.Context, directory pendingDirectory, entries []os.FileInfo) ([]pendingDirectory, bool) {
	var subdirectories []pendingDirectory
	var jobs []classificationJob
	interrupted := false

	for _, entryInformation := range entries {
		childPath := filepath.Join(directory.absolutePath, entryInformation.Name())
		childNode := &types.TreeNode{
			Name:         entryInformation.Name(),
			RelativePath: joinRelative(directory.node.RelativePath, entryInformation.Name()),
			IsDirectory:  entryInformation.IsDir(),
		}
		directory.node.Children = append(directory.node.Children, childNode)

		if interrupted || ctx.Err() != nil {
			interrupted = true
			state.exclude(childNode, types.ReasonDeadline)
			continue
		}

		resolvedInformation, resolveError := state.resolveEntry(childPath, entryInformation)
		if resolveError != nil {
			state.exclude(childNode, types.ReasonAccess)
			state.record(types.DiagnosticPathAccessError, childNode.RelativePath, fmt.Sprintf("%v: %v", ErrPathAccess, resolveError))
			continue
		}
		childNode.IsDirectory = resolvedInformation.IsDir()

		candidate := ignore.CandidateEntry{RelativePath: childNode.RelativePath, IsDirectory: childNode.IsDirectory}
		if state.rules.Verdict(candidate) == ignore.Exclude {
			state.exclude(childNode, types.ReasonPattern)
			continue
		}

		if childNode.IsDirectory {
			if !state.markVisited(childPath) {
				state.exclude(childNode, types.ReasonCycle)
				state.record(types.DiagnosticSymlinkCycleDetected, childNode.RelativePath, ErrSymlinkCycle.Error())
				continue
			}
			childNode.Included = true
			subdirectories = append(subdirectories, pendingDirectory{node: childNode, absolutePath: childPath})
			continue
		}

		childNode.SizeBytes = resolvedInformation.Size()
		if state.options.SkipEmpty && childNode.SizeBytes == 0 {
			state.exclude(childNode, types.ReasonEmpty)
			continue
		}
		jobs = append(jobs, classificationJob{node: childNode, absolutePath: childPath})
	}

	state.classify(jobs)
	return subdirectories, interrupted
}

// classify applies the size and content gates. With Workers above one the
// jobs run concurrently; every job owns its node, so no locking is needed.
func (state *walkState) classify(jobs []classificationJob) {
	if state.options.Workers <= 1 || len(jobs) < 2 {
		for _, job := range jobs {
			state.classifyOne(job)
		}
		return
	}
	var group errgroup.Group
	group.SetLimit(state.options.Workers)
	for _, job := range jobs {
		currentJob := job
		group.Go(func() error {
			state.classifyOne(currentJob)
			return nil
		})
	}
	_ = group.Wait()
}

func (state *walkState) classifyOne(job classificationJob) {
	switch {
	case state.classifier == nil:
		job.node.Included = true
	case !state.classifier.IsSizeOk(job.absolutePath):
		job.node.Reason = types.ReasonSize
	case !state.classifier.IsTextLike(job.absolutePath):
		job.node.Reason = types.ReasonBinary
	default:
		job.node.Included = true
	}
}

// resolveEntry follows symlinks so that the entry reports its target's type and size.
func (state *walkState) resolveEntry(path string, information os.FileInfo) (os.FileInfo, error) {
	if information.Mode()&os.ModeSymlink == 0 {
		return information, nil
	}
	return state.options.Filesystem.Stat(path)
}

func (state *walkState) markVisited(path string) bool {
	realPath, realError := state.options.RealPath(path)
	if realError != nil {
		realPath = filepath.Clean(path)
	}
	if _, seen := state.visited[realPath]; seen {
		return false
	}
	state.visited[realPath] = struct{}{}
	return true
}

func (state *walkState) readDirectory(path string) ([]os.FileInfo, error) {
	entries, readError := afero.ReadDir(state.options.Filesystem, path)
	if readError != nil {
		return nil, readError
	}
	sort.Slice(entries, func(left, right int) bool {
		return entries[left].Name() < entries[right].Name()
	})
	return entries, nil
}

func (state *walkState) exclude(node *types.TreeNode, reason string) {
	node.Included = false
	node.Reason = reason
	node.Children = nil
}

func (state *walkState) record(kind types.DiagnosticKind, path string, message string) {
	diagnostic := types.Diagnostic{Kind: kind, Path: path, Message: message}
	state.diagnostics = append(state.diagnostics, diagnostic)
	state.options.Warn(diagnostic)
}

func joinRelative(parent string, name string) string {
	if parent == rootRelativePath || parent == "" {
		return name
	}
	return parent + "/" + name
}

func defaultRealPath(filesystem afero.Fs) func(string) (string, error) {
	if _, isOperatingSystem := filesystem.(*afero.OsFs); isOperatingSystem {
		return filepath.EvalSymlinks
	}
	return func(path string) (string, error) {
		return filepath.Clean(path), nil
	}
}
