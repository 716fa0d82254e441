package imaging

import "image"

// Channel thresholds for the near-white and near-black tests.
const (
	whiteCutoff = 240
	blackCutoff = 15
)

// MostlyWhite reports whether at least threshold of the pixels are near
// white (every color channel above 240). Near-blank candidates like page
// margins and empty crop regions pass this test.
func MostlyWhite(img image.Image, threshold float64) bool {
	return uniformFraction(img, func(r, g, b uint8) bool {
		return r > whiteCutoff && g > whiteCutoff && b > whiteCutoff
	}) >= threshold
}

// MostlyBlack reports whether at least threshold of the pixels are near
// black (every color channel below 15).
func MostlyBlack(img image.Image, threshold float64) bool {
	return uniformFraction(img, func(r, g, b uint8) bool {
		return r < blackCutoff && g < blackCutoff && b < blackCutoff
	}) >= threshold
}

// uniformFraction returns the fraction of pixels satisfying test.
func uniformFraction(img image.Image, test func(r, g, b uint8) bool) float64 {
	if img == nil {
		return 0
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}
	p := toRGBA(img)
	matched := 0
	for y := 0; y < h; y++ {
		row := p.Pix[y*p.Stride : y*p.Stride+w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			if test(row[i], row[i+1], row[i+2]) {
				matched++
			}
		}
	}
	return float64(matched) / float64(w*h)
}
