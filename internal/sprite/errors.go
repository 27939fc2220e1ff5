package sprite

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when there are no descriptors to combine.
	ErrEmptyInput = errors.New("no images to combine")

	// ErrInvalidDescriptor is returned for negative box sizes or fit offsets.
	ErrInvalidDescriptor = errors.New("invalid descriptor")

	// ErrSizeMismatch is returned when a descriptor's declared origin
	// dimensions disagree with the decoded image.
	ErrSizeMismatch = errors.New("image size does not match descriptor")

	// ErrNotImage is returned when a source file is not a recognised image.
	ErrNotImage = errors.New("not an image file")

	// ErrTooLarge is returned for source images above the WithMaxPixels limit.
	ErrTooLarge = errors.New("image too large")
)

// DecodeError reports a source image that could not be read or decoded.
type DecodeError struct {
	Index int
	Path  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// WriteError reports a failure while encoding or writing the output file.
// The output path is left as it was before the operation.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write sprite sheet %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
