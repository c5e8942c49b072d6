package transform

import (
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/svg"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

const (
	mediaCSS = "text/css"
	mediaSVG = "image/svg+xml"
)

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaCSS, css.Minify)
	// viewBox is left in place; responsive SVGs depend on it.
	m.Add(mediaSVG, &svg.Minifier{})
	return m
}

// CSSMinifier minifies stylesheets.
type CSSMinifier struct {
	m *minify.M
}

func NewCSSMinifier() *CSSMinifier {
	return &CSSMinifier{m: newMinifier()}
}

func (c *CSSMinifier) Name() string { return "minify" }

func (c *CSSMinifier) Apply(_ context.Context, f *asset.File) (*asset.File, error) {
	out, err := c.m.Bytes(mediaCSS, f.Contents)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryTask, "minify stylesheet").
			WithContext("path", f.Rel).Build()
	}
	return f.WithContents(out), nil
}
