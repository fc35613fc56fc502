package spatial

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestTransformPoint(t *testing.T) {
	identity := NewZeroPose()
	p := identity.TransformPoint(r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})

	quarterTurn := NewPoseFromYaw(r3.Vector{X: 1, Y: 2}, math.Pi/2)
	p = quarterTurn.TransformPoint(r3.Vector{X: 1})
	test.That(t, p.X, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, p.Y, test.ShouldAlmostEqual, 3, 1e-9)
	test.That(t, p.Z, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestComposeAndInvert(t *testing.T) {
	a := NewPoseFromYaw(r3.Vector{X: 2, Y: -1, Z: 0.5}, math.Pi/3)
	b := NewPoseFromYaw(r3.Vector{X: -4, Y: 0.25}, -math.Pi/5)

	// Composing with the inverse must give the identity.
	test.That(t, PoseAlmostEqual(a.Compose(a.Invert()), NewZeroPose(), 1e-9), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(a.Invert().Compose(a), NewZeroPose(), 1e-9), test.ShouldBeTrue)

	// Composition applies the right transform first.
	p := r3.Vector{X: 1, Y: 1}
	viaCompose := a.Compose(b).TransformPoint(p)
	viaSteps := a.TransformPoint(b.TransformPoint(p))
	test.That(t, viaCompose.X, test.ShouldAlmostEqual, viaSteps.X, 1e-9)
	test.That(t, viaCompose.Y, test.ShouldAlmostEqual, viaSteps.Y, 1e-9)
	test.That(t, viaCompose.Z, test.ShouldAlmostEqual, viaSteps.Z, 1e-9)
}

func TestYaw(t *testing.T) {
	for _, yaw := range []float64{0, 0.1, math.Pi / 2, -math.Pi / 2, 3} {
		pose := NewPoseFromYaw(r3.Vector{}, yaw)
		test.That(t, pose.Yaw(), test.ShouldAlmostEqual, yaw, 1e-9)
	}
}
