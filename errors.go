package bootimage

import (
	"errors"
	"fmt"
)

var (
	ErrBadMagic        = errors.New("header does not contain the 'ANDROID!' magic")
	ErrNoPageSize      = errors.New("header does not have a page size set")
	ErrUnsupportedKind = errors.New("header kind is not supported")
)

// BadMagicError means the header signature is not BootMagic.
type BadMagicError struct {
	Header Header
}

func (err *BadMagicError) Error() string {
	return fmt.Sprintf("%v (got %q)", ErrBadMagic, err.Header.Magic[:])
}

func (err *BadMagicError) Is(target error) bool {
	return target == ErrBadMagic
}

// NoPageSizeError means offsets were needed but the page size is zero.
type NoPageSizeError struct {
	Header Header
}

func (err *NoPageSizeError) Error() string {
	return ErrNoPageSize.Error()
}

func (err *NoPageSizeError) Is(target error) bool {
	return target == ErrNoPageSize
}

// IoError wraps a failure of the underlying stream.
type IoError struct {
	Op      string
	Section Section
	Err     error
}

func (err *IoError) Error() string {
	return fmt.Sprintf("I/O error during %s of the '%s' section: %v", err.Op, err.Section, err.Err)
}

func (err *IoError) Unwrap() error {
	return err.Err
}

// BadHeaderError means the header was rejected while reading a full image.
// Err is a *BadMagicError or a *NoPageSizeError.
type BadHeaderError struct {
	Err error
}

func (err *BadHeaderError) Error() string {
	return fmt.Sprintf("could not parse the boot image header: %v", err.Err)
}

func (err *BadHeaderError) Unwrap() error {
	return err.Err
}

// SectionError ties a locate or read failure to the section it concerns.
type SectionError struct {
	Section Section
	Err     error
}

func (err *SectionError) Error() string {
	return fmt.Sprintf("cannot read the '%s' section: %v", err.Section, err.Err)
}

func (err *SectionError) Unwrap() error {
	return err.Err
}

// NoSectionError means a section name or value is not in the catalog.
type NoSectionError struct {
	Name string
}

func (err *NoSectionError) Error() string {
	return fmt.Sprintf("the '%s' section does not exist", err.Name)
}

// HeaderLengthError means raw header bytes are not HEADER_SIZE long.
type HeaderLengthError struct {
	Length int
}

func (err *HeaderLengthError) Error() string {
	return fmt.Sprintf("header must be %d bytes, got %d", HEADER_SIZE, err.Length)
}

// SectionSizeError means a buffer is too big for the header's size fields.
type SectionSizeError struct {
	Section Section
	Size    uint64
}

func (err *SectionSizeError) Error() string {
	return fmt.Sprintf("the '%s' section is %d bytes, more than the header can describe", err.Section, err.Size)
}
