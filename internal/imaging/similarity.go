package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// PixelSimilarity returns the fraction of identical pixels between two
// bitmaps, in [0,1]. When dimensions differ the second image is resampled to
// the first one's size. When either image carries transparency the alpha
// channel participates in the comparison, otherwise only the color channels
// do. The metric is coarse and sensitive to resampling artifacts, so callers
// should use a generous threshold rather than expect exact-duplicate
// precision.
func PixelSimilarity(a, b image.Image) float64 {
	if a == nil || b == nil {
		return 0
	}
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}
	if b.Bounds().Dx() != w || b.Bounds().Dy() != h {
		b = Resize(b, w, h)
	}

	withAlpha := hasAlpha(a) || hasAlpha(b)
	pa := toRGBA(a)
	pb := toRGBA(b)

	diff := 0
	for y := 0; y < h; y++ {
		ra := pa.Pix[y*pa.Stride : y*pa.Stride+w*4]
		rb := pb.Pix[y*pb.Stride : y*pb.Stride+w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			if ra[i] != rb[i] || ra[i+1] != rb[i+1] || ra[i+2] != rb[i+2] {
				diff++
				continue
			}
			if withAlpha && ra[i+3] != rb[i+3] {
				diff++
			}
		}
	}
	return 1 - float64(diff)/float64(w*h)
}

// Resize scales img to w x h using bilinear resampling.
func Resize(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// hasAlpha reports whether the image contains at least one non-opaque pixel.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}

// toRGBA returns img as *image.RGBA with bounds anchored at the origin,
// copying only when the representation requires it.
func toRGBA(img image.Image) *image.RGBA {
	if p, ok := img.(*image.RGBA); ok && p.Rect.Min.X == 0 && p.Rect.Min.Y == 0 {
		return p
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}
