package ros

import (
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/robomaps/cartobridge/spatial"
)

// ToPose converts a pose message to a spatial.Pose.
func ToPose(msg PoseMsg) spatial.Pose {
	return spatial.NewPose(
		r3.Vector{X: msg.Position.X, Y: msg.Position.Y, Z: msg.Position.Z},
		quat.Number{
			Real: msg.Orientation.W,
			Imag: msg.Orientation.X,
			Jmag: msg.Orientation.Y,
			Kmag: msg.Orientation.Z,
		},
	)
}

// FromPose converts a spatial.Pose to a pose message.
func FromPose(pose spatial.Pose) PoseMsg {
	return PoseMsg{
		Position: Point{
			X: pose.Translation.X,
			Y: pose.Translation.Y,
			Z: pose.Translation.Z,
		},
		Orientation: Quaternion{
			W: pose.Rotation.Real,
			X: pose.Rotation.Imag,
			Y: pose.Rotation.Jmag,
			Z: pose.Rotation.Kmag,
		},
	}
}

// ToTime converts a ROS timestamp to a time.Time.
func ToTime(t Time) time.Time {
	return time.Unix(t.Secs, t.Nsecs)
}

// FromTime converts a time.Time to a ROS timestamp.
func FromTime(t time.Time) Time {
	return Time{Secs: t.Unix(), Nsecs: int64(t.Nanosecond())}
}
