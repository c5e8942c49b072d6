// Package tasks defines the named asset tasks (clean, css, images, js, ...)
// and the composites built from them, and runs them with a build ID.
package tasks
