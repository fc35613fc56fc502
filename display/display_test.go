package display_test

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"

	"github.com/robomaps/cartobridge/display"
	"github.com/robomaps/cartobridge/ros"
	"github.com/robomaps/cartobridge/spatial"
	"github.com/robomaps/cartobridge/submap"
)

func TestFadeAlpha(t *testing.T) {
	cfg := display.DefaultFadeConfig()

	// Within the start distance the submap is fully opaque.
	test.That(t, cfg.Alpha(0, 0.5, 0), test.ShouldEqual, 1.0)

	// Beyond start+fade distance it is fully transparent.
	test.That(t, cfg.Alpha(0, 4, 0.5), test.ShouldEqual, 0.0)

	// A small change is suppressed by the hysteresis.
	// Target for distance 1.9 is 1 - 0.9/2 = 0.55; delta from 0.5 is
	// only 0.05.
	test.That(t, cfg.Alpha(0, 1.9, 0.5), test.ShouldEqual, 0.5)

	// A large change goes through.
	test.That(t, cfg.Alpha(0, 2.8, 0.5), test.ShouldAlmostEqual, 0.1, 1e-9)

	// Exact extremes always go through, whatever the delta.
	test.That(t, cfg.Alpha(0, 3.0, 0.05), test.ShouldEqual, 0.0)
	test.That(t, cfg.Alpha(0, 0.9, 0.95), test.ShouldEqual, 1.0)
}

func submapList(frameID string, entries ...ros.SubmapEntry) ros.SubmapList {
	return ros.SubmapList{
		Header: ros.Header{FrameID: frameID},
		Submap: entries,
	}
}

func entry(trajectory, index, version int, z float64) ros.SubmapEntry {
	return ros.SubmapEntry{
		TrajectoryID:  trajectory,
		SubmapIndex:   index,
		SubmapVersion: version,
		Pose: ros.PoseMsg{
			Position:    ros.Point{Z: z},
			Orientation: ros.Quaternion{W: 1},
		},
	}
}

func TestDisplayProcessSubmapList(t *testing.T) {
	d := display.NewDisplay(display.DefaultFadeConfig(), nil)

	d.ProcessSubmapList(submapList("map", entry(0, 0, 1, 0), entry(0, 1, 2, 0), entry(1, 0, 1, 0)))
	test.That(t, d.Len(), test.ShouldEqual, 3)

	alpha, visible := d.State(submap.ID{Trajectory: 0, Index: 1})
	test.That(t, visible, test.ShouldBeTrue)
	test.That(t, alpha, test.ShouldEqual, 1.0)

	// Unlisted submaps are dropped, including whole trajectories.
	d.ProcessSubmapList(submapList("map", entry(0, 1, 3, 0)))
	test.That(t, d.Len(), test.ShouldEqual, 1)
	_, visible = d.State(submap.ID{Trajectory: 1, Index: 0})
	test.That(t, visible, test.ShouldBeFalse)
}

func TestDisplayVisibilityToggles(t *testing.T) {
	var toggled []submap.ID
	d := display.NewDisplay(display.DefaultFadeConfig(), func(id submap.ID, visible bool) {
		toggled = append(toggled, id)
	})
	d.ProcessSubmapList(submapList("map", entry(0, 0, 1, 0), entry(0, 1, 1, 0)))

	d.SetTrajectoryVisible(0, false)
	test.That(t, len(toggled), test.ShouldEqual, 2)
	_, visible := d.State(submap.ID{Trajectory: 0, Index: 0})
	test.That(t, visible, test.ShouldBeFalse)

	// Toggling to the same value does not fire the hook again.
	d.SetSubmapVisible(submap.ID{Trajectory: 0, Index: 0}, false)
	test.That(t, len(toggled), test.ShouldEqual, 2)

	d.SetSubmapVisible(submap.ID{Trajectory: 0, Index: 0}, true)
	test.That(t, len(toggled), test.ShouldEqual, 3)
	_, visible = d.State(submap.ID{Trajectory: 0, Index: 0})
	test.That(t, visible, test.ShouldBeTrue)
}

func TestDisplayTrackingZ(t *testing.T) {
	d := display.NewDisplay(display.DefaultFadeConfig(), nil)
	d.ProcessSubmapList(submapList("map", entry(0, 0, 1, 0)))

	d.SetTrackingZ(10)
	alpha, _ := d.State(submap.ID{Trajectory: 0, Index: 0})
	test.That(t, alpha, test.ShouldEqual, 0.0)

	d.SetTrackingZ(0.2)
	alpha, _ = d.State(submap.ID{Trajectory: 0, Index: 0})
	test.That(t, alpha, test.ShouldEqual, 1.0)
}

func TestRenderOverlay(t *testing.T) {
	d := display.NewDisplay(display.DefaultFadeConfig(), nil)
	d.ProcessSubmapList(submapList("map", entry(0, 0, 1, 0)))

	surface := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			surface.SetRGBA(x, y, color.RGBA{R: 128, G: 255, A: 255})
		}
	}
	slices := []submap.PaintSlice{{
		ID:         submap.ID{Trajectory: 0, Index: 0},
		Pose:       spatial.NewZeroPose(),
		SlicePose:  spatial.NewZeroPose(),
		Resolution: 0.05,
		Width:      2,
		Height:     2,
		Version:    1,
		Surface:    surface,
	}}

	img := display.RenderOverlay(slices, d, display.OverlayConfig{Resolution: 0.05})
	test.That(t, img, test.ShouldNotBeNil)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 2)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 2)

	// An invisible submap renders nothing.
	d.SetSubmapVisible(submap.ID{Trajectory: 0, Index: 0}, false)
	test.That(t, display.RenderOverlay(slices, d, display.OverlayConfig{Resolution: 0.05}), test.ShouldBeNil)

	// The output is bounded when a max size is configured.
	d.SetSubmapVisible(submap.ID{Trajectory: 0, Index: 0}, true)
	img = display.RenderOverlay(slices, d, display.OverlayConfig{Resolution: 0.01, MaxSize: 4})
	test.That(t, img, test.ShouldNotBeNil)
	test.That(t, img.Bounds().Dx(), test.ShouldBeLessThanOrEqualTo, 4)
	test.That(t, img.Bounds().Dy(), test.ShouldBeLessThanOrEqualTo, 4)
}
