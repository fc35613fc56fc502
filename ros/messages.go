// Package ros implements functionality that bridges the gap between
// cartobridge and a ROS-style middleware: hand-written message types plus
// conversions to and from native representations.
package ros

// Time is a ROS timestamp.
type Time struct {
	Secs  int64 `json:"secs"`
	Nsecs int64 `json:"nsecs"`
}

// Header is a standard message header.
type Header struct {
	Seq     int    `json:"seq"`
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Point is a position in 3D space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is an orientation in 3D space.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// PoseMsg is a position and orientation pair.
type PoseMsg struct {
	Position    Point      `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// SubmapEntry describes one submap in a SubmapList: its identity, latest
// known pose, and version counter.
type SubmapEntry struct {
	TrajectoryID  int     `json:"trajectory_id"`
	SubmapIndex   int     `json:"submap_index"`
	SubmapVersion int     `json:"submap_version"`
	Pose          PoseMsg `json:"pose"`
}

// SubmapList is the metadata stream message listing every live submap.
type SubmapList struct {
	Header Header        `json:"header"`
	Submap []SubmapEntry `json:"submap"`
}

// SubmapQueryRequest asks the mapping engine for a submap's textures.
type SubmapQueryRequest struct {
	TrajectoryID int `json:"trajectory_id"`
	SubmapIndex  int `json:"submap_index"`
}

// SubmapTexture is one texture variant in a query response. Cells holds
// gzip-compressed row-major interleaved pixels, two bytes per pixel
// (intensity then alpha).
type SubmapTexture struct {
	Cells      []byte  `json:"cells"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Resolution float64 `json:"resolution"`
	SlicePose  PoseMsg `json:"slice_pose"`
}

// SubmapQueryResponse carries the textures for one submap version.
type SubmapQueryResponse struct {
	SubmapVersion int             `json:"submap_version"`
	Textures      []SubmapTexture `json:"textures"`
}

// MapMetaData describes the geometry of an occupancy grid.
type MapMetaData struct {
	MapLoadTime Time    `json:"map_load_time"`
	Resolution  float64 `json:"resolution"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Origin      PoseMsg `json:"origin"`
}

// OccupancyGrid is a 2D grid map where each cell is -1 (unknown) or an
// occupancy probability in [0, 100].
type OccupancyGrid struct {
	Header Header      `json:"header"`
	Info   MapMetaData `json:"info"`
	Data   []int8      `json:"data"`
}
