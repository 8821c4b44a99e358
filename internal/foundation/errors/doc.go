// Package errors provides classified error primitives used across siteconfig.
//
// A ClassifiedError carries a category, a severity and a retry strategy next
// to the message, cause and structured context. Errors are built with the
// fluent ErrorBuilder:
//
//	err := errors.NewError(errors.CategoryMerge, "source record cannot be read").
//		WithContext("record", recordID).
//		WithCause(parseErr).
//		Build()
//
// Domain constructors (InvalidSource, MissingFolderStructure, AmbiguousMaster,
// LookupMiss) live in domain.go. The CLI adapter maps categories to exit codes.
package errors
