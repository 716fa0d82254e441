package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestMinCombine(t *testing.T) {
	a := solidImage(4, 4, color.RGBA{200, 50, 120, 255})
	b := solidImage(4, 4, color.RGBA{100, 90, 130, 255})
	out := MinCombine(a, b)
	want := color.RGBA{100, 50, 120, 255}
	got := out.RGBAAt(2, 2)
	if got != want {
		t.Errorf("MinCombine pixel = %v, want %v", got, want)
	}
}

func TestDarkenLinesTiers(t *testing.T) {
	tests := []struct {
		name string
		in   color.RGBA
		want color.RGBA
	}{
		{"background untouched", color.RGBA{250, 250, 250, 255}, color.RGBA{250, 250, 250, 255}},
		{"dark line", color.RGBA{90, 90, 90, 255}, color.RGBA{18, 18, 18, 255}},
		{"light line", color.RGBA{170, 170, 170, 255}, color.RGBA{51, 51, 51, 255}},
		{"mid tone", color.RGBA{200, 200, 200, 255}, color.RGBA{80, 80, 80, 255}},
		{"colored dark line keeps hue", color.RGBA{90, 180, 200, 255}, color.RGBA{18, 36, 40, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := solidImage(2, 2, tt.in)
			DarkenLines(img)
			if got := img.RGBAAt(0, 0); got != tt.want {
				t.Errorf("DarkenLines(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDownscaleTo(t *testing.T) {
	src := solidImage(100, 100, color.RGBA{30, 30, 30, 255})
	dst := DownscaleTo(src, 50, 50)
	if dst.Bounds() != image.Rect(0, 0, 50, 50) {
		t.Errorf("DownscaleTo bounds = %v, want 50x50 at origin", dst.Bounds())
	}
	if got := dst.RGBAAt(25, 25); got != (color.RGBA{30, 30, 30, 255}) {
		t.Errorf("DownscaleTo center pixel = %v, want solid source color", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := solidImage(8, 8, color.RGBA{12, 200, 77, 255})

	data, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, format, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
		t.Errorf("decoded size = %dx%d, want 8x8", img.Bounds().Dx(), img.Bounds().Dy())
	}

	jdata, err := EncodeJPEG(src, 85)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	if _, format, err = Decode(jdata); err != nil || format != "jpeg" {
		t.Errorf("Decode(jpeg) format = %q err = %v, want jpeg", format, err)
	}
}
