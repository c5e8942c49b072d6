// Package devserver serves the site during development and pushes reload
// events to connected browsers over server-sent events.
package devserver
