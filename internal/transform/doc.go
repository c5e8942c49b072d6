// Package transform holds the collaborators that change file contents:
// the sass and PostCSS executables, CSS and SVG minification, raster image
// re-encoding and JavaScript syntax checks. Each one is exposed as an
// asset.Stage so tasks can chain them.
package transform
