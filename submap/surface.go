package submap

import (
	"image"
	"image/color"
)

// packSurface converts a decoded texture into the fixed four-channel
// raster layout the compositor consumes: R carries intensity, G carries
// the observed flag, B is unused, and A carries the texture's alpha. A
// pixel counts as observed unless both its intensity and alpha bytes are
// zero. The result is a packed data raster, not a displayable image; it is
// never alpha-composited directly.
func packSurface(t *Texture) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			intensity := t.Intensity[y*t.Width+x]
			alpha := t.Alpha[y*t.Width+x]
			var observed uint8
			if intensity != 0 || alpha != 0 {
				observed = 255
			}
			img.SetRGBA(x, y, color.RGBA{R: intensity, G: observed, B: 0, A: alpha})
		}
	}
	return img
}

// Observed reports whether the surface pixel at (x, y) was ever observed.
func Observed(surface *image.RGBA, x, y int) bool {
	return surface.RGBAAt(x, y).G != 0
}
