// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging prepares admin image uploads before they are sent to the
// backend: EXIF orientation is applied, camera location data is stripped
// and oversized images are scaled down.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // registers the WebP decoder

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/util"
)

// Uploader sends prepared image bytes on.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, api.Result)
}

// Options configures upload preparation.
type Options struct {
	MaxBytes     int64
	MaxDimension int
	Quality      int
}

// Preparer validates and normalises images, then hands them to the next
// uploader.
type Preparer struct {
	next   Uploader
	opts   Options
	logger *slog.Logger
}

// NewPreparer wraps next. Zero options default to 10 MB, 1920 px and JPEG
// quality 85.
func NewPreparer(next Uploader, opts Options, logger *slog.Logger) *Preparer {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 << 20
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 1920
	}
	if opts.Quality <= 0 {
		opts.Quality = 85
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Preparer{next: next, opts: opts, logger: logger}
}

// Upload implements the section uploader. Rejections come back as
// validation results so the form can show them inline.
func (p *Preparer) Upload(ctx context.Context, filename, _ string, r io.Reader) (string, api.Result) {
	data, err := io.ReadAll(io.LimitReader(r, p.opts.MaxBytes+1))
	if err != nil {
		p.logger.Warn("reading image upload", "filename", filename, "error", err)
		return "", rejected("Could not read the selected file")
	}
	if int64(len(data)) > p.opts.MaxBytes {
		return "", rejected(fmt.Sprintf("Image is larger than %d MB", p.opts.MaxBytes>>20))
	}

	img, err := Prepare(data, p.opts.MaxDimension, p.opts.Quality)
	switch {
	case errors.Is(err, errUnsupported):
		return "", rejected("Only JPEG, PNG, GIF and WebP images are allowed")
	case err != nil:
		p.logger.Warn("preparing image upload", "filename", filename, "error", err)
		return "", rejected("The selected file is not a valid image")
	}
	if img.Stripped {
		p.logger.Info("removed location data from upload", "filename", filename)
	}

	return p.next.Upload(ctx, util.UploadFilename(filename, img.Format.Ext), img.Format.MIME, bytes.NewReader(img.Data))
}

func rejected(msg string) api.Result {
	return api.Result{Success: false, Message: msg, Kind: api.KindValidation}
}

// Format describes an accepted upload type.
type Format struct {
	Name string
	Ext  string
	MIME string
}

// formats maps sniffed content types to the formats accepted for upload.
// TIFF is excluded (CVE-2023-36308).
var formats = map[string]Format{
	"image/jpeg": {Name: "jpeg", Ext: "jpg", MIME: "image/jpeg"},
	"image/png":  {Name: "png", Ext: "png", MIME: "image/png"},
	"image/gif":  {Name: "gif", Ext: "gif", MIME: "image/gif"},
	"image/webp": {Name: "webp", Ext: "webp", MIME: "image/webp"},
}

var errUnsupported = errors.New("unsupported image format")

// Sniff identifies data by its leading bytes.
func Sniff(data []byte) (Format, bool) {
	f, ok := formats[http.DetectContentType(data)]
	return f, ok
}

// Prepared is an image ready for upload.
type Prepared struct {
	Data   []byte
	Format Format
	// Stripped is set when the original carried GPS coordinates.
	Stripped bool
}

// Prepare orients, downsizes and re-encodes data as needed. GIFs pass
// through untouched to keep animation; WebP becomes JPEG. An image that
// needs no change keeps its original bytes.
func Prepare(data []byte, maxDimension, quality int) (Prepared, error) {
	f, ok := Sniff(data)
	if !ok {
		return Prepared{}, errUnsupported
	}
	if f.Name == "gif" {
		if _, err := gif.DecodeConfig(bytes.NewReader(data)); err != nil {
			return Prepared{}, fmt.Errorf("decoding gif: %w", err)
		}
		return Prepared{Data: data, Format: f}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return Prepared{}, fmt.Errorf("decoding image: %w", err)
	}

	var meta metadata
	if f.Name == "jpeg" {
		meta = readMetadata(bytes.NewReader(data))
	} else {
		meta = metadata{orientation: 1}
	}

	b := img.Bounds()
	oversized := b.Dx() > maxDimension || b.Dy() > maxDimension
	if meta.orientation == 1 && !oversized && !meta.located && f.Name != "webp" {
		return Prepared{Data: data, Format: f}, nil
	}

	if orient, ok := orientations[meta.orientation]; ok {
		img = orient(img)
	}
	if oversized {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}
	if f.Name == "webp" {
		f = formats["image/jpeg"]
	}

	var buf bytes.Buffer
	if f.Name == "png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return Prepared{}, fmt.Errorf("encoding image: %w", err)
	}
	return Prepared{Data: buf.Bytes(), Format: f, Stripped: meta.located}, nil
}

// metadata is what matters of a photo's EXIF block.
type metadata struct {
	orientation int
	located     bool
}

// readMetadata never fails; missing or broken EXIF reads as upright and
// unlocated.
func readMetadata(r io.Reader) metadata {
	m := metadata{orientation: 1}
	x, err := exif.Decode(r)
	if err != nil {
		return m
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			m.orientation = v
		}
	}
	if _, _, err := x.LatLong(); err == nil {
		m.located = true
	}
	return m
}

// orientations undo the EXIF orientation tag. Value 1 is upright.
var orientations = map[int]func(image.Image) image.Image{
	2: func(img image.Image) image.Image { return imaging.FlipH(img) },
	3: func(img image.Image) image.Image { return imaging.Rotate180(img) },
	4: func(img image.Image) image.Image { return imaging.FlipV(img) },
	5: func(img image.Image) image.Image { return imaging.Transpose(img) },
	6: func(img image.Image) image.Image { return imaging.Rotate270(img) },
	7: func(img image.Image) image.Image { return imaging.Transverse(img) },
	8: func(img image.Image) image.Image { return imaging.Rotate90(img) },
}
