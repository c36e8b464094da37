// Package classifier decides whether a file is small enough and text-like
// enough to be concatenated into the context artifact.
package classifier

import (
	"errors"
	"io"

	"github.com/spf13/afero"

	"github.com/temirov/llmctx/internal/utils"
)

// DefaultMaxSizeBytes is the largest file accepted when no limit is configured.
const DefaultMaxSizeBytes int64 = 1024 * 1024

// Classifier is the size and content gate applied after ignore rules.
type Classifier interface {
	IsSizeOk(path string) bool
	IsTextLike(path string) bool
}

// FileClassifier implements Classifier on top of an afero filesystem.
type FileClassifier struct {
	filesystem   afero.Fs
	maxSizeBytes int64
}

// New returns a FileClassifier. A non-positive maxSizeBytes selects DefaultMaxSizeBytes.
func New(filesystem afero.Fs, maxSizeBytes int64) *FileClassifier {
	if maxSizeBytes <= 0 {
		maxSizeBytes = DefaultMaxSizeBytes
	}
	return &FileClassifier{filesystem: filesystem, maxSizeBytes: maxSizeBytes}
}

// MaxSizeBytes returns the configured threshold.
func (classifier *FileClassifier) MaxSizeBytes() int64 {
	return classifier.maxSizeBytes
}

// IsSizeOk reports whether the file exists and is at most the configured size.
func (classifier *FileClassifier) IsSizeOk(path string) bool {
	fileInformation, statError := classifier.filesystem.Stat(path)
	if statError != nil {
		return false
	}
	return fileInformation.Size() <= classifier.maxSizeBytes
}

// IsTextLike reads up to utils.SniffLength bytes and reports whether they look
// like text. Unreadable files are not text-like.
func (classifier *FileClassifier) IsTextLike(path string) bool {
	fileHandle, openError := classifier.filesystem.Open(path)
	if openError != nil {
		return false
	}
	defer fileHandle.Close()

	buffer := make([]byte, utils.SniffLength)
	bytesRead, readError := io.ReadFull(fileHandle, buffer)
	if readError != nil && !errors.Is(readError, io.EOF) && !errors.Is(readError, io.ErrUnexpectedEOF) {
		return false
	}
	return !utils.IsBinary(buffer[:bytesRead])
}

var _ Classifier = (*FileClassifier)(nil)
