// Package grid composes cached submap slices into a single raster and
// derives middleware occupancy-grid messages from it.
package grid

import (
	"context"
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.opencensus.io/trace"

	"github.com/robomaps/cartobridge/spatial"
	"github.com/robomaps/cartobridge/submap"
)

// Painting is one composed raster. The surface uses the packed submap
// channel layout (R intensity, G observed flag, A alpha). Origin is the
// position of the world origin in surface pixel coordinates, measured from
// the top-left corner.
type Painting struct {
	Surface    *image.RGBA
	Origin     r2.Point
	Resolution float64
}

// Compositor merges submap slices into rasters at a fixed output
// resolution.
//
// Overlap policy: slices are painted in ascending ID order and only
// observed source pixels write to the output, so observed data always wins
// over unobserved holes and, where two slices both observed a cell, the
// higher ID wins. The ordering comes from Cache.Snapshot, which keeps the
// result deterministic across recomposes.
type Compositor struct {
	resolution float64
}

// NewCompositor returns a compositor producing rasters with the given cell
// size in meters per pixel.
func NewCompositor(resolution float64) *Compositor {
	return &Compositor{resolution: resolution}
}

// Resolution returns the output cell size in meters per pixel.
func (c *Compositor) Resolution() float64 {
	return c.resolution
}

// sliceFramePoint returns the slice-frame position of the center of pixel
// (px, py). Pixel columns advance along +X; pixel rows advance along -Y,
// so row zero is the top of the slice.
func sliceFramePoint(px, py float64, resolution float64) r3.Vector {
	return r3.Vector{X: px * resolution, Y: -py * resolution}
}

// worldTransform returns the transform taking slice pixel space to the
// world frame.
func worldTransform(s submap.PaintSlice) spatial.Pose {
	return s.Pose.Compose(s.SlicePose)
}

// Compose merges every slice carrying a surface into one raster covering
// their union bounding box. Slices without a fetched surface are skipped.
// Returns nil when there is nothing to paint.
func (c *Compositor) Compose(ctx context.Context, slices []submap.PaintSlice) *Painting {
	_, span := trace.StartSpan(ctx, "grid::Compositor::Compose")
	defer span.End()

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	painted := 0
	for _, s := range slices {
		if s.Surface == nil {
			continue
		}
		painted++
		transform := worldTransform(s)
		w := float64(s.Width)
		h := float64(s.Height)
		for _, corner := range []r3.Vector{
			sliceFramePoint(0, 0, s.Resolution),
			sliceFramePoint(w, 0, s.Resolution),
			sliceFramePoint(0, h, s.Resolution),
			sliceFramePoint(w, h, s.Resolution),
		} {
			p := transform.TransformPoint(corner)
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if painted == 0 {
		return nil
	}

	// The epsilon keeps extents that are an exact multiple of the
	// resolution from picking up a spurious row or column of padding.
	width := int(math.Ceil((maxX-minX)/c.resolution - 1e-6))
	height := int(math.Ceil((maxY-minY)/c.resolution - 1e-6))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, width, height))

	for _, s := range slices {
		if s.Surface == nil {
			continue
		}
		c.paintSlice(out, minX, maxY, s)
	}

	return &Painting{
		Surface:    out,
		Origin:     r2.Point{X: -minX / c.resolution, Y: maxY / c.resolution},
		Resolution: c.resolution,
	}
}

// paintSlice writes one slice into the output raster. Destination cells
// inside the slice's world-space bounding box are inverse-mapped to slice
// pixels (nearest neighbor); only observed pixels are copied.
func (c *Compositor) paintSlice(out *image.RGBA, originWX, originWY float64, s submap.PaintSlice) {
	transform := worldTransform(s)
	inverse := transform.Invert()

	// World-space AABB of the slice, then the covered output cell range.
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	w := float64(s.Width)
	h := float64(s.Height)
	for _, corner := range []r3.Vector{
		sliceFramePoint(0, 0, s.Resolution),
		sliceFramePoint(w, 0, s.Resolution),
		sliceFramePoint(0, h, s.Resolution),
		sliceFramePoint(w, h, s.Resolution),
	} {
		p := transform.TransformPoint(corner)
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	bounds := out.Bounds()
	cx0 := clamp(int(math.Floor((minX-originWX)/c.resolution)), 0, bounds.Dx()-1)
	cx1 := clamp(int(math.Ceil((maxX-originWX)/c.resolution)), 0, bounds.Dx()-1)
	cy0 := clamp(int(math.Floor((originWY-maxY)/c.resolution)), 0, bounds.Dy()-1)
	cy1 := clamp(int(math.Ceil((originWY-minY)/c.resolution)), 0, bounds.Dy()-1)

	for cy := cy0; cy <= cy1; cy++ {
		for cx := cx0; cx <= cx1; cx++ {
			world := r3.Vector{
				X: originWX + (float64(cx)+0.5)*c.resolution,
				Y: originWY - (float64(cy)+0.5)*c.resolution,
			}
			local := inverse.TransformPoint(world)
			px := int(math.Floor(local.X / s.Resolution))
			py := int(math.Floor(-local.Y / s.Resolution))
			if px < 0 || px >= s.Width || py < 0 || py >= s.Height {
				continue
			}
			if !submap.Observed(s.Surface, px, py) {
				continue
			}
			out.SetRGBA(cx, cy, s.Surface.RGBAAt(px, py))
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
