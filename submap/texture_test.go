package submap

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/edaniels/golog"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/robomaps/cartobridge/ros"
)

// querierFunc adapts a function to the Querier interface.
type querierFunc func(ctx context.Context, id ID) (*ros.SubmapQueryResponse, error)

func (f querierFunc) SubmapTextures(ctx context.Context, id ID) (*ros.SubmapQueryResponse, error) {
	return f(ctx, id)
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gz.Close(), test.ShouldBeNil)
	return buf.Bytes()
}

func TestDecodeTexture(t *testing.T) {
	// 2x2: interleaved (intensity, alpha) pairs in row-major order.
	interleaved := []byte{10, 1, 20, 2, 30, 3, 40, 4}
	msg := ros.SubmapTexture{
		Cells:      gzipBytes(t, interleaved),
		Width:      2,
		Height:     2,
		Resolution: 0.05,
	}

	texture, err := decodeTexture(7, msg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, texture.Version, test.ShouldEqual, 7)
	test.That(t, texture.Intensity, test.ShouldResemble, []byte{10, 20, 30, 40})
	test.That(t, texture.Alpha, test.ShouldResemble, []byte{1, 2, 3, 4})
	test.That(t, len(texture.Intensity), test.ShouldEqual, texture.Width*texture.Height)
}

func TestDecodeTextureLengthMismatch(t *testing.T) {
	// Three bytes cannot be 2*w*h for a 2x2 texture.
	msg := ros.SubmapTexture{
		Cells:  gzipBytes(t, []byte{1, 2, 3}),
		Width:  2,
		Height: 2,
	}
	_, err := decodeTexture(1, msg)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "want exactly 8")
}

func TestEncodeCellsRoundTrip(t *testing.T) {
	intensity := []byte{0, 128, 255, 5, 0, 90}
	alpha := []byte{255, 0, 1, 2, 0, 200}

	cells, err := EncodeCells(intensity, alpha)
	test.That(t, err, test.ShouldBeNil)

	texture, err := decodeTexture(3, ros.SubmapTexture{Cells: cells, Width: 3, Height: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, texture.Intensity, test.ShouldResemble, intensity)
	test.That(t, texture.Alpha, test.ShouldResemble, alpha)

	// Re-interleaving and decompressing reproduces the wire payload
	// byte for byte.
	reencoded, err := EncodeCells(texture.Intensity, texture.Alpha)
	test.That(t, err, test.ShouldBeNil)
	gz, err := gzip.NewReader(bytes.NewReader(reencoded))
	test.That(t, err, test.ShouldBeNil)
	raw, err := io.ReadAll(gz)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw, test.ShouldResemble, []byte{0, 255, 128, 0, 255, 1, 5, 2, 0, 0, 90, 200})
}

func TestEncodeCellsLengthMismatch(t *testing.T) {
	_, err := EncodeCells([]byte{1, 2}, []byte{1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFetchTexturesTransportFailure(t *testing.T) {
	logger := golog.NewTestLogger(t)
	q := querierFunc(func(ctx context.Context, id ID) (*ros.SubmapQueryResponse, error) {
		return nil, errors.New("engine not ready")
	})
	result, err := FetchTextures(context.Background(), q, ID{Trajectory: 0, Index: 1}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result, test.ShouldBeNil)
}
