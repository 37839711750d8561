package mzml

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidScanID means an invalid scan id is supplied
	ErrInvalidScanID = errors.New("MzML: invalid scan id")
	// ErrInvalidScanIndex means an invalid scan index is supplied
	ErrInvalidScanIndex = errors.New("MzML: invalid scan index")
	// ErrUnknownUnit means the file contains a unit that the software cannot handle
	ErrUnknownUnit = errors.New("MzML: can't handle unit")
	// ErrMissingRequiredMetadata means a required scan field has no source
	ErrMissingRequiredMetadata = errors.New("MzML: missing required metadata")
	// ErrMalformedBinaryPayload means array data is corrupt or truncated
	ErrMalformedBinaryPayload = errors.New("MzML: malformed binary payload")
	// ErrUnsupportedCompression means the array uses e.g. MS-Numpress
	ErrUnsupportedCompression = errors.New("MzML: compression type not supported")
	// ErrUnparseableContainer means the file is neither indexedmzML nor mzML
	ErrUnparseableContainer = errors.New("MzML: unparseable container")
	// ErrFileNotFound means the mzML file does not exist
	ErrFileNotFound = errors.New("MzML: file not found")
)

// MetadataError reports a required field that could not be determined
// for a scan
type MetadataError struct {
	ScanNumber int // one-based
	Field      string
	Err        error
}

func (e *MetadataError) Error() string {
	if e.Err != nil && !errors.Is(e.Err, ErrMissingRequiredMetadata) {
		return fmt.Sprintf("scan %d: %s: %v", e.ScanNumber, e.Field, e.Err)
	}
	return fmt.Sprintf("scan %d: could not determine %s", e.ScanNumber, e.Field)
}

// Unwrap makes errors.Is(err, ErrMissingRequiredMetadata) work
func (e *MetadataError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMissingRequiredMetadata, e.Err}
	}
	return []error{ErrMissingRequiredMetadata}
}

func missing(scanIndex int, field string) error {
	return &MetadataError{ScanNumber: scanIndex + 1, Field: field}
}

// PayloadError reports a binary array that can't be decoded
type PayloadError struct {
	ScanNumber int // one-based, 0 if unknown
	Reason     string
	Err        error
}

func (e *PayloadError) Error() string {
	msg := "malformed binary payload: " + e.Reason
	if e.ScanNumber > 0 {
		msg = fmt.Sprintf("scan %d: %s", e.ScanNumber, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap makes errors.Is(err, ErrMalformedBinaryPayload) work
func (e *PayloadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedBinaryPayload, e.Err}
	}
	return []error{ErrMalformedBinaryPayload}
}

// ContainerError reports a file that can't be opened or parsed
type ContainerError struct {
	Path string
	Err  error
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("unable to parse %s as an mzML file: %v", e.Path, e.Err)
}

func (e *ContainerError) Unwrap() error {
	return e.Err
}
