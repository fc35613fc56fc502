package grid

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/robomaps/cartobridge/ros"
)

// unknownCell is the occupancy grid sentinel for never-observed cells.
const unknownCell = -1

// ToOccupancyGrid converts a composed painting into a middleware occupancy
// grid message. Cells are emitted row-major starting from the bottom of
// the raster, as the message convention requires. Unobserved cells map to
// -1; observed cells map to round((1 - intensity/255) * 100). A value
// outside [-1, 100] can only come from corruption and is returned as an
// error so the caller can abort loudly instead of publishing a wrong map.
func ToOccupancyGrid(p *Painting, frameID string, stamp time.Time) (*ros.OccupancyGrid, error) {
	bounds := p.Surface.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	rosStamp := ros.FromTime(stamp)

	grid := &ros.OccupancyGrid{
		Header: ros.Header{Stamp: rosStamp, FrameID: frameID},
		Info: ros.MapMetaData{
			MapLoadTime: rosStamp,
			Resolution:  p.Resolution,
			Width:       width,
			Height:      height,
			Origin: ros.PoseMsg{
				Position: ros.Point{
					X: -p.Origin.X * p.Resolution,
					Y: (float64(-height) + p.Origin.Y) * p.Resolution,
				},
				Orientation: ros.Quaternion{W: 1},
			},
		},
		Data: make([]int8, 0, width*height),
	}

	for y := height - 1; y >= 0; y-- {
		for x := 0; x < width; x++ {
			pixel := p.Surface.RGBAAt(x, y)
			value := unknownCell
			if pixel.G != 0 {
				value = int(math.Round((1 - float64(pixel.R)/255) * 100))
			}
			if value < unknownCell || value > 100 {
				return nil, errors.Errorf(
					"occupancy value %d out of range at cell (%d,%d)", value, x, y)
			}
			grid.Data = append(grid.Data, int8(value))
		}
	}
	return grid, nil
}
