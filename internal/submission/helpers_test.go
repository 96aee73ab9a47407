package submission

import (
	"html"
	"image"
	"image/color"
	"net/url"
	"regexp"
	"testing"
)

var hiddenInput = regexp.MustCompile(`<input type="hidden" name="([^"]*)" value="([^"]*)">`)

// formFields extracts hidden inputs from a rendered page, in document order.
func formFields(t *testing.T, page string) []Field {
	t.Helper()
	var fields []Field
	for _, m := range hiddenInput.FindAllStringSubmatch(page, -1) {
		fields = append(fields, Field{Name: html.UnescapeString(m[1]), Value: html.UnescapeString(m[2])})
	}
	if len(fields) == 0 {
		t.Fatalf("no hidden inputs in page:\n%s", page)
	}
	return fields
}

func fieldValues(fields []Field) url.Values {
	v := url.Values{}
	for _, f := range fields {
		v.Add(f.Name, f.Value)
	}
	return v
}

func fieldNames(fields []Field) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

func newTestImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}
