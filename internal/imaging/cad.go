package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// Pixel tiers for CAD line darkening. A pixel belongs to the first tier it
// matches: background (all channels above 240) stays untouched, dark lines
// (any channel below 100) darken hardest, light lines (any channel below
// 180) less, remaining mid tones least. Factors follow the tuning of the
// dual-render pipeline for dense technical drawings.
const (
	cadBackgroundCutoff = 240
	cadDarkCutoff       = 100
	cadLightCutoff      = 180

	cadDarkFactor  = 0.2
	cadLightFactor = 0.3
	cadMidFactor   = 0.4
)

// DownscaleTo resamples img to w x h with a high-quality kernel. Used to
// fold a double-resolution render back onto the target size so hairline
// strokes survive.
func DownscaleTo(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// MinCombine merges two equally-sized renders by keeping the darker value of
// each channel, preserving strokes that either render thinned out.
func MinCombine(a, b image.Image) *image.RGBA {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	pa := toRGBA(a)
	pb := toRGBA(b)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		ra := pa.Pix[y*pa.Stride : y*pa.Stride+w*4]
		rb := pb.Pix[y*pb.Stride : y*pb.Stride+w*4]
		ro := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			ro[x] = minByte(ra[x], rb[x])
			ro[x+1] = minByte(ra[x+1], rb[x+1])
			ro[x+2] = minByte(ra[x+2], rb[x+2])
			ro[x+3] = 0xff
		}
	}
	return out
}

// DarkenLines boosts stroke visibility in place by scaling line pixels
// toward black while keeping their hue, leaving the background untouched.
func DarkenLines(img *image.RGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			r, g, b := row[x], row[x+1], row[x+2]
			if r > cadBackgroundCutoff && g > cadBackgroundCutoff && b > cadBackgroundCutoff {
				continue
			}
			var factor float64
			switch {
			case r < cadDarkCutoff || g < cadDarkCutoff || b < cadDarkCutoff:
				factor = cadDarkFactor
			case r < cadLightCutoff || g < cadLightCutoff || b < cadLightCutoff:
				factor = cadLightFactor
			default:
				factor = cadMidFactor
			}
			row[x] = uint8(float64(r) * factor)
			row[x+1] = uint8(float64(g) * factor)
			row[x+2] = uint8(float64(b) * factor)
		}
	}
}

func minByte(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}
