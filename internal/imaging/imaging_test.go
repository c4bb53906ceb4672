package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{200, 120, 40, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestProcessJPEG(t *testing.T) {
	result, err := Process(createTestJPEG(100, 80))
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if result.Width != 100 || result.Height != 80 {
		t.Errorf("unexpected size %dx%d", result.Width, result.Height)
	}
}

func TestProcessPNGBecomesJPEG(t *testing.T) {
	result, err := Process(createTestPNG(64, 64))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if _, err := jpeg.Decode(bytes.NewReader(result.Data)); err != nil {
		t.Errorf("output is not a JPEG: %v", err)
	}
}

func TestProcessDownscaleKeepsAspect(t *testing.T) {
	result, err := Process(createTestJPEG(3200, 1600))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}
	if result.Width != MaxDimension || result.Height != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, result.Width, result.Height)
	}
}

func TestProcessRejectsNonImages(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("not an image"),
		[]byte("%PDF-1.7\n"),
	} {
		if _, err := Process(data); err == nil {
			t.Errorf("expected error for %q", data)
		}
	}
}

func TestIsImage(t *testing.T) {
	if !IsImage(createTestPNG(2, 2)) {
		t.Error("expected PNG to be an image")
	}
	if IsImage([]byte("%PDF-1.7\n")) {
		t.Error("expected PDF not to be an image")
	}
}
