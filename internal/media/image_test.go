package media

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// newTestImage creates a small 2x2 RGBA image.
func newTestImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, image.Black)
	img.Set(1, 0, image.White)
	img.Set(0, 1, image.Transparent)
	img.Set(1, 1, image.Transparent)

	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T) []byte {
	t.Helper()
	pal := image.NewPaletted(image.Rect(0, 0, 3, 3), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, pal, nil); err != nil {
		t.Fatalf("failed to encode test GIF: %v", err)
	}
	return buf.Bytes()
}

func TestEncodePNG(t *testing.T) {
	out, err := EncodePNG(newTestImage())
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
}

func TestEncodePNGNil(t *testing.T) {
	if _, err := EncodePNG(nil); err == nil {
		t.Error("expected error for nil image")
	}
}

func TestDecodeFormats(t *testing.T) {
	pngData, err := EncodePNG(newTestImage())
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	cases := []struct {
		name   string
		data   []byte
		format string
	}{
		{"png", pngData, "png"},
		{"jpeg", encodeJPEG(t, newTestImage()), "jpeg"},
		{"gif", encodeGIF(t), "gif"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, format, err := Decode(tc.data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if format != tc.format {
				t.Errorf("expected format %q, got %q", tc.format, format)
			}
		})
	}
}

func TestDecodeCorrupt(t *testing.T) {
	if _, _, err := Decode([]byte("not an image")); err == nil {
		t.Error("expected error for corrupt data")
	}
	if _, err := DecodePNG(encodeJPEG(t, newTestImage())); err == nil {
		t.Error("expected error decoding JPEG as PNG")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.jpg")
	if err := os.WriteFile(path, encodeJPEG(t, newTestImage()), 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 2 {
		t.Errorf("unexpected width %d", img.Bounds().Dx())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
