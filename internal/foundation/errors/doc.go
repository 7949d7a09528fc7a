// Package errors classifies mdsite failures.
//
// Every error a build reports is a *ClassifiedError carrying a category
// (config, filesystem, link, ...) and a severity. Warnings and info errors
// are collected on the build result; errors fail one document or asset;
// fatal errors stop the run. The kind sentinels in kinds.go let callers test
// for a failure class with errors.Is without depending on messages.
//
//	err := errors.IOError(out, cause).Build()
//	errors.Is(err, errors.ErrIO) // true
//
// CLIErrorAdapter turns the final error of a command into an exit code and
// a one-line message.
package errors
