package display

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/geo/r3"
	"golang.org/x/image/font/basicfont"

	"github.com/robomaps/cartobridge/submap"
)

// idTextColor matches the red marker text drawn next to each submap.
var idTextColor = color.RGBA{R: 255, A: 255}

// OverlayConfig controls overlay rendering.
type OverlayConfig struct {
	// Resolution is the overlay cell size in meters per pixel.
	Resolution float64
	// MaxSize bounds the longer edge of the returned image in pixels;
	// zero means unbounded.
	MaxSize int
	// DrawLabels toggles the "(trajectory,index)" marker text.
	DrawLabels bool
}

// RenderOverlay paints every visible, fetched slice into a single
// displayable image: intensity as gray, texture alpha scaled by the
// submap's fade alpha, plus an outline and id label per submap. The
// display provides per-submap alpha and visibility.
func RenderOverlay(slices []submap.PaintSlice, d *Display, cfg OverlayConfig) image.Image {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	drawn := 0
	for _, s := range slices {
		if s.Surface == nil {
			continue
		}
		if _, visible := d.State(s.ID); !visible {
			continue
		}
		drawn++
		transform := s.Pose.Compose(s.SlicePose)
		w := float64(s.Width) * s.Resolution
		h := float64(s.Height) * s.Resolution
		for _, corner := range []r3.Vector{
			{}, {X: w}, {Y: -h}, {X: w, Y: -h},
		} {
			p := transform.TransformPoint(corner)
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if drawn == 0 {
		return nil
	}

	// Same jitter guard as the grid compositor: exact multiples of the
	// resolution must not round up to an extra pixel.
	width := int(math.Ceil((maxX-minX)/cfg.Resolution - 1e-6))
	height := int(math.Ceil((maxY-minY)/cfg.Resolution - 1e-6))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	dc := gg.NewContext(width, height)

	toCanvas := func(p r3.Vector) (float64, float64) {
		return (p.X - minX) / cfg.Resolution, (maxY - p.Y) / cfg.Resolution
	}

	for _, s := range slices {
		if s.Surface == nil {
			continue
		}
		alpha, visible := d.State(s.ID)
		if !visible || alpha == 0 {
			continue
		}
		transform := s.Pose.Compose(s.SlicePose)
		originX, originY := toCanvas(transform.Translation)

		dc.Push()
		dc.Translate(originX, originY)
		dc.Rotate(-transform.Yaw())
		dc.Scale(s.Resolution/cfg.Resolution, s.Resolution/cfg.Resolution)
		dc.DrawImage(displayImage(s, alpha), 0, 0)
		dc.SetColor(color.NRGBA{R: 80, G: 80, B: 80, A: uint8(alpha * 255)})
		dc.SetLineWidth(1)
		dc.DrawRectangle(0, 0, float64(s.Width), float64(s.Height))
		dc.Stroke()
		dc.Pop()
	}

	if cfg.DrawLabels {
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetColor(idTextColor)
		for _, s := range slices {
			if s.Surface == nil {
				continue
			}
			if _, visible := d.State(s.ID); !visible {
				continue
			}
			x, y := toCanvas(s.Pose.Translation)
			dc.DrawStringAnchored(s.ID.String(), x, y, 0.5, 0.5)
		}
	}

	img := dc.Image()
	if cfg.MaxSize > 0 && (width > cfg.MaxSize || height > cfg.MaxSize) {
		img = imaging.Fit(img, cfg.MaxSize, cfg.MaxSize, imaging.NearestNeighbor)
	}
	return img
}

// displayImage converts a packed slice surface into a displayable
// grayscale image with the fade alpha folded into each pixel's opacity.
func displayImage(s submap.PaintSlice, fade float64) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			packed := s.Surface.RGBAAt(x, y)
			if packed.G == 0 {
				continue
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: packed.R,
				G: packed.R,
				B: packed.R,
				A: uint8(float64(packed.A) * fade),
			})
		}
	}
	return img
}
