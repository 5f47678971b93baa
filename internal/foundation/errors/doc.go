// Package errors provides the classified error type used across nbdocs.
//
// A ClassifiedError carries a category (what part of the build failed), a
// severity and free-form context. The CLI adapter turns categories into
// process exit codes.
//
// Example usage:
//
//	err := errors.FileSystemError("copy asset directory").
//		WithContext("source", src).
//		WithCause(ioErr).
//		Build()
package errors
