package submap

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/robomaps/cartobridge/ros"
	"github.com/robomaps/cartobridge/spatial"
)

// Texture is one decoded submap texture: separate row-major intensity and
// alpha planes of Width*Height bytes each, plus the pose of the slice
// within the submap's own frame.
type Texture struct {
	Version    int
	Intensity  []byte
	Alpha      []byte
	Width      int
	Height     int
	Resolution float64
	SlicePose  spatial.Pose
}

// Textures holds every texture variant returned for one submap version.
// By convention the first entry is the highest resolution one.
type Textures struct {
	Version  int
	Textures []Texture
}

// decodeTexture decompresses and de-interleaves one texture payload. A
// payload whose decompressed length is not exactly 2*width*height bytes
// indicates a protocol violation on the engine side and is returned as an
// error; callers must treat it as fatal rather than continue with a
// corrupt raster.
func decodeTexture(version int, msg ros.SubmapTexture) (Texture, error) {
	gz, err := gzip.NewReader(bytes.NewReader(msg.Cells))
	if err != nil {
		return Texture{}, errors.Wrap(err, "decompressing texture cells")
	}
	cells, err := io.ReadAll(gz)
	if err != nil {
		return Texture{}, errors.Wrap(err, "decompressing texture cells")
	}
	if err := gz.Close(); err != nil {
		return Texture{}, errors.Wrap(err, "decompressing texture cells")
	}

	numPixels := msg.Width * msg.Height
	if len(cells) != 2*numPixels {
		return Texture{}, errors.Errorf(
			"texture payload has %d bytes; want exactly %d for %dx%d pixels",
			len(cells), 2*numPixels, msg.Width, msg.Height)
	}

	intensity := make([]byte, 0, numPixels)
	alpha := make([]byte, 0, numPixels)
	for i := 0; i < msg.Height; i++ {
		for j := 0; j < msg.Width; j++ {
			intensity = append(intensity, cells[(i*msg.Width+j)*2])
			alpha = append(alpha, cells[(i*msg.Width+j)*2+1])
		}
	}

	return Texture{
		Version:    version,
		Intensity:  intensity,
		Alpha:      alpha,
		Width:      msg.Width,
		Height:     msg.Height,
		Resolution: msg.Resolution,
		SlicePose:  ros.ToPose(msg.SlicePose),
	}, nil
}

// EncodeCells interleaves the given intensity and alpha planes back into
// the two-bytes-per-pixel wire layout and gzip-compresses the result. It
// is the exact inverse of the decode path and exists for engine fakes and
// round-trip tests.
func EncodeCells(intensity, alpha []byte) ([]byte, error) {
	if len(intensity) != len(alpha) {
		return nil, errors.Errorf(
			"intensity and alpha plane lengths differ: %d vs %d",
			len(intensity), len(alpha))
	}
	interleaved := make([]byte, 0, 2*len(intensity))
	for i := range intensity {
		interleaved = append(interleaved, intensity[i], alpha[i])
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(interleaved); err != nil {
		return nil, errors.Wrap(err, "compressing texture cells")
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(err, "compressing texture cells")
	}
	return buf.Bytes(), nil
}
