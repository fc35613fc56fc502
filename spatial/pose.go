// Package spatial implements the small amount of rigid transform math the
// bridge needs to place submap slices in the map frame.
package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a rigid transform in 3D space as a translation together
// with a unit rotation quaternion.
type Pose struct {
	Translation r3.Vector
	Rotation    quat.Number
}

// NewPose returns a pose with the given translation and rotation.
func NewPose(translation r3.Vector, rotation quat.Number) Pose {
	return Pose{Translation: translation, Rotation: rotation}
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose {
	return Pose{Rotation: quat.Number{Real: 1}}
}

// NewPoseFromYaw returns a pose rotated about the +Z axis by yaw radians.
func NewPoseFromYaw(translation r3.Vector, yaw float64) Pose {
	return Pose{
		Translation: translation,
		Rotation:    quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)},
	}
}

// RotateVec rotates v by the unit quaternion q.
func RotateVec(q quat.Number, v r3.Vector) r3.Vector {
	qv := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	res := quat.Mul(quat.Mul(q, qv), quat.Conj(q))
	return r3.Vector{X: res.Imag, Y: res.Jmag, Z: res.Kmag}
}

// Compose returns the pose representing this transform followed by other,
// i.e. the transform taking points through other first, then through p.
func (p Pose) Compose(other Pose) Pose {
	return Pose{
		Translation: p.TransformPoint(other.Translation),
		Rotation:    quat.Mul(p.Rotation, other.Rotation),
	}
}

// Invert returns the inverse transform.
func (p Pose) Invert() Pose {
	inv := quat.Conj(p.Rotation)
	t := RotateVec(inv, p.Translation)
	return Pose{
		Translation: r3.Vector{X: -t.X, Y: -t.Y, Z: -t.Z},
		Rotation:    inv,
	}
}

// TransformPoint applies the transform to the given point.
func (p Pose) TransformPoint(v r3.Vector) r3.Vector {
	return RotateVec(p.Rotation, v).Add(p.Translation)
}

// Yaw returns the rotation about the +Z axis in radians.
func (p Pose) Yaw() float64 {
	q := p.Rotation
	return math.Atan2(
		2*(q.Real*q.Kmag+q.Imag*q.Jmag),
		1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag),
	)
}

// PoseAlmostEqual returns whether the two poses are within tol of each other
// in both translation and rotation.
func PoseAlmostEqual(a, b Pose, tol float64) bool {
	if a.Translation.Sub(b.Translation).Norm() > tol {
		return false
	}
	diff := quat.Mul(a.Rotation, quat.Conj(b.Rotation))
	return math.Abs(1-math.Abs(diff.Real)) < tol
}
