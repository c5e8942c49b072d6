package transform

import (
	"bytes"
	"context"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/tdewolff/minify/v2"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// ImageOptions selects which formats are re-encoded.
type ImageOptions struct {
	GIF bool
	PNG bool
	SVG bool
	// JPEGQuality enables lossy JPEG re-encoding when between 1 and 100.
	JPEGQuality int
}

// ImageOptimizer shrinks images. A re-encoded file replaces the original
// only when it is smaller; undecodable or unknown files pass through.
type ImageOptimizer struct {
	opts  ImageOptions
	m     *minify.M
	count atomic.Int64
	saved atomic.Int64
}

func NewImageOptimizer(opts ImageOptions) *ImageOptimizer {
	return &ImageOptimizer{opts: opts, m: newMinifier()}
}

func (o *ImageOptimizer) Name() string { return "imagemin" }

// Summary returns how many files were shrunk and the total bytes saved.
func (o *ImageOptimizer) Summary() (files int, saved uint64) {
	return int(o.count.Load()), uint64(o.saved.Load())
}

func (o *ImageOptimizer) Apply(ctx context.Context, f *asset.File) (*asset.File, error) {
	var (
		out []byte
		err error
	)
	switch f.Ext() {
	case ".gif":
		if o.opts.GIF {
			out, err = reencodeGIF(f.Contents)
		}
	case ".png":
		if o.opts.PNG {
			out, err = reencodePNG(f.Contents)
		}
	case ".jpg", ".jpeg":
		if o.opts.JPEGQuality > 0 && o.opts.JPEGQuality <= 100 {
			out, err = reencodeJPEG(f.Contents, o.opts.JPEGQuality)
		}
	case ".svg":
		if o.opts.SVG {
			out, err = o.m.Bytes(mediaSVG, f.Contents)
		}
	}
	if err != nil {
		slog.DebugContext(ctx, "Image left unoptimized", logfields.Path(f.Rel), logfields.Error(err))
		return f, nil
	}
	if out == nil || len(out) >= len(f.Contents) {
		return f, nil
	}
	saved := len(f.Contents) - len(out)
	o.count.Add(1)
	o.saved.Add(int64(saved))
	slog.DebugContext(ctx, "Optimized image",
		logfields.Path(f.Rel),
		slog.String("saved", humanize.Bytes(uint64(saved))))
	return f.WithContents(out), nil
}

func reencodeGIF(data []byte) ([]byte, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reencodePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reencodeJPEG(data []byte, quality int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
