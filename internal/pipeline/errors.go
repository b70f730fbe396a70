package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrison/trialscope/internal/metadata"
	"github.com/harrison/trialscope/internal/protocol"
	"github.com/harrison/trialscope/internal/trialcsv"
)

// ErrorKind classifies why a file was skipped
type ErrorKind int

const (
	// KindIO covers unreadable files and malformed CSV
	KindIO ErrorKind = iota
	// KindMalformedFilename means the filename carries no session metadata
	KindMalformedFilename
	// KindUnknownProtocol means the filename names an unsupported protocol
	KindUnknownProtocol
	// KindMissingColumns means the table lacks a required column
	KindMissingColumns
	// KindParse means a cell could not be interpreted
	KindParse
	// KindCanceled means the batch stopped before the file was processed
	KindCanceled
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindMalformedFilename:
		return "malformed-filename"
	case KindUnknownProtocol:
		return "unknown-protocol"
	case KindMissingColumns:
		return "missing-columns"
	case KindParse:
		return "parse"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// FileError records a file that was skipped and why
type FileError struct {
	Path string
	Kind ErrorKind
	Err  error
}

// Error implements the error interface for FileError.
func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *FileError) Unwrap() error {
	return e.Err
}

// newFileError wraps err with the kind inferred from its type
func newFileError(path string, err error) *FileError {
	var (
		missing   *trialcsv.MissingColumnsError
		parseErr  *trialcsv.ParseError
		malformed *metadata.MalformedFilenameError
		unknown   *protocol.UnknownProtocolError
	)

	kind := KindIO
	switch {
	case errors.As(err, &missing):
		kind = KindMissingColumns
	case errors.As(err, &parseErr):
		kind = KindParse
	case errors.As(err, &malformed):
		kind = KindMalformedFilename
	case errors.As(err, &unknown):
		kind = KindUnknownProtocol
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindCanceled
	}
	return &FileError{Path: path, Kind: kind, Err: err}
}
