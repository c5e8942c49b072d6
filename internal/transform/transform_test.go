package transform

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

type fakeRunner struct {
	calls [][]string
	out   func(stdin []byte) ([]byte, error)
}

func (r *fakeRunner) Run(_ context.Context, argv []string, stdin []byte) ([]byte, error) {
	r.calls = append(r.calls, argv)
	if r.out == nil {
		return stdin, nil
	}
	return r.out(stdin)
}

func TestSassPipelineSkipsPartialsAndRenames(t *testing.T) {
	runner := &fakeRunner{out: func(in []byte) ([]byte, error) {
		return []byte("body {\n  color: red;\n}\n"), nil
	}}
	sc, err := NewSassCompiler("npx sass", "", runner, "node_modules")
	require.NoError(t, err)

	files := []*asset.File{
		{Base: "app/sass", Rel: "_vars.scss", Contents: []byte("$c: red;")},
		{Base: "app/sass", Rel: "style.scss", Contents: []byte("body { color: $c; }")},
	}
	out, err := asset.Pipe(t.Context(), files, asset.Filter("partials", NotPartial), sc, asset.Rename(".css"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "style.css", out[0].Rel)
	assert.Contains(t, string(out[0].Contents), "color: red")

	require.Len(t, runner.calls, 1)
	argv := runner.calls[0]
	assert.Equal(t, []string{"npx", "sass", "--stdin"}, argv[:3])
	assert.Contains(t, argv, "--style=expanded")
	assert.Contains(t, argv, "--load-path=node_modules")
}

func TestSassCompilerKeepsName(t *testing.T) {
	sc, err := NewSassCompiler("sass", "compressed", &fakeRunner{})
	require.NoError(t, err)

	got, err := sc.Apply(t.Context(), &asset.File{Rel: "style.scss", Contents: []byte("a{}")})
	require.NoError(t, err)
	assert.Equal(t, "style.scss", got.Rel)
	assert.Equal(t, "a{}", string(got.Contents))
}

func TestAutoprefixerPassThroughWhenUnset(t *testing.T) {
	ap, err := NewAutoprefixer("", nil)
	require.NoError(t, err)
	assert.False(t, ap.Enabled())

	f := &asset.File{Rel: "a.css", Contents: []byte("a{}")}
	got, err := ap.Apply(t.Context(), f)
	require.NoError(t, err)
	assert.Same(t, f, got)
}

func TestAutoprefixerRunsCommand(t *testing.T) {
	runner := &fakeRunner{out: func(in []byte) ([]byte, error) {
		return append([]byte("/* prefixed */"), in...), nil
	}}
	ap, err := NewAutoprefixer(`postcss --use autoprefixer --no-map`, runner)
	require.NoError(t, err)

	got, err := ap.Apply(t.Context(), &asset.File{Rel: "a.css", Contents: []byte("a{}")})
	require.NoError(t, err)
	assert.Equal(t, "/* prefixed */a{}", string(got.Contents))
	assert.Equal(t, []string{"postcss", "--use", "autoprefixer", "--no-map"}, runner.calls[0])
}

func TestExecRunner(t *testing.T) {
	out, err := ExecRunner{}.Run(t.Context(), []string{"cat"}, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	_, err = ExecRunner{}.Run(t.Context(), []string{"assetpipe-no-such-binary"}, nil)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryExternal))

	_, err = ExecRunner{}.Run(t.Context(), []string{"sh", "-c", "echo broken >&2; exit 3"}, nil)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTask))
	assert.Contains(t, err.Error(), "broken")
}

func TestParseCommandRejectsUnterminatedQuote(t *testing.T) {
	_, err := ParseCommand(`sass "--load-path`)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestCSSMinifier(t *testing.T) {
	in := "body {\n  color: #ff0000;\n  margin: 0px;\n}\n"
	got, err := NewCSSMinifier().Apply(t.Context(), &asset.File{Rel: "style.css", Contents: []byte(in)})
	require.NoError(t, err)
	assert.Less(t, len(got.Contents), len(in))
	assert.NotContains(t, string(got.Contents), "\n")
}

func uncompressedPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := range 64 {
		for x := range 64 {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	require.NoError(t, enc.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageOptimizerShrinksPNG(t *testing.T) {
	data := uncompressedPNG(t)
	opt := NewImageOptimizer(ImageOptions{PNG: true})

	got, err := opt.Apply(t.Context(), &asset.File{Rel: "pixel.png", Contents: data})
	require.NoError(t, err)
	assert.Less(t, len(got.Contents), len(data))
	_, err = png.Decode(bytes.NewReader(got.Contents))
	require.NoError(t, err)

	files, saved := opt.Summary()
	assert.Equal(t, 1, files)
	assert.Equal(t, uint64(len(data)-len(got.Contents)), saved)
}

func TestImageOptimizerPassesThrough(t *testing.T) {
	opt := NewImageOptimizer(ImageOptions{PNG: true, GIF: true})

	broken := &asset.File{Rel: "broken.png", Contents: []byte("not a png")}
	got, err := opt.Apply(t.Context(), broken)
	require.NoError(t, err)
	assert.Same(t, broken, got)

	jpg := &asset.File{Rel: "photo.jpg", Contents: []byte{0xff, 0xd8}}
	got, err = opt.Apply(t.Context(), jpg)
	require.NoError(t, err)
	assert.Same(t, jpg, got, "jpeg is untouched without a quality setting")

	files, _ := opt.Summary()
	assert.Zero(t, files)
}

func TestImageOptimizerSVGKeepsViewBox(t *testing.T) {
	in := `<?xml version="1.0"?>
<!-- exported -->
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10">
    <g>
        <rect x="0" y="0" width="10" height="10" fill="#ff0000"/>
    </g>
</svg>
`
	opt := NewImageOptimizer(ImageOptions{SVG: true})
	got, err := opt.Apply(t.Context(), &asset.File{Rel: "logo.svg", Contents: []byte(in)})
	require.NoError(t, err)
	assert.Less(t, len(got.Contents), len(in))
	assert.Contains(t, string(got.Contents), "viewBox")
}

func TestScriptLinter(t *testing.T) {
	var l ScriptLinter
	ok := &asset.File{Rel: "main.js", Contents: []byte("const a = 1;\nfunction f() { return a; }\n")}
	bad := &asset.File{Rel: "broken.js", Contents: []byte("function ( {")}
	other := &asset.File{Rel: "data.json.map", Contents: []byte("{{{")}

	require.NoError(t, l.Check(ok))
	require.NoError(t, l.Check(other))

	err := l.Lint([]*asset.File{ok, bad, bad})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "script syntax error")
}
