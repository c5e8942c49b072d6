// Package errors provides the classified error primitives used across assetpipe.
//
// Every failure that reaches the console carries a category so the CLI can
// pick an exit code and the watch loop can tell a broken stylesheet from an
// unwatchable directory.
//
// Key features:
//   - ErrorCategory: broad classification (config, task, filesystem, watch, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - ClassifiedError: structured error with category, severity and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and console formatting
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryTask, "sass compilation failed").
//		WithContext("task", "css").
//		WithContext("path", "sass/style.scss").
//		Build()
package errors
