package domain

import "errors"

// Download and extraction failure kinds. Callers match them with errors.Is;
// the wrapped message carries the underlying cause.
var (
	ErrAlreadyInProgress    = errors.New("already in progress")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidVersionFormat = errors.New("version format is incorrect")
	ErrRemote               = errors.New("remote error")
	ErrDecompression        = errors.New("decompression error")
	ErrSizeMismatch         = errors.New("size mismatch")
	ErrEmptyFile            = errors.New("downloaded file is empty")
	ErrCancelled            = errors.New("cancelled")
	ErrFilesystem           = errors.New("filesystem error")
)

// ErrorKind returns a stable label for err, used in metrics and job history
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyInProgress):
		return "already_in_progress"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrInvalidVersionFormat):
		return "invalid_version_format"
	case errors.Is(err, ErrRemote):
		return "remote"
	case errors.Is(err, ErrDecompression):
		return "decompression"
	case errors.Is(err, ErrSizeMismatch):
		return "size_mismatch"
	case errors.Is(err, ErrEmptyFile):
		return "empty_file"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrFilesystem):
		return "filesystem"
	default:
		return "unknown"
	}
}
