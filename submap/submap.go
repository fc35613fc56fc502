// Package submap maintains a local, versioned cache of submap textures
// fetched from a remote mapping engine. It decides when a tile needs
// refetching, runs each fetch asynchronously, and hands consistent
// metadata+texture snapshots to consumers.
package submap

import "fmt"

// ID uniquely identifies a submap's lineage: which trajectory produced it
// and where in that trajectory it sits. It does not identify a content
// version.
type ID struct {
	Trajectory int
	Index      int
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return fmt.Sprintf("(%d,%d)", id.Trajectory, id.Index)
}

// Less orders IDs by trajectory, then index.
func (id ID) Less(other ID) bool {
	if id.Trajectory != other.Trajectory {
		return id.Trajectory < other.Trajectory
	}
	return id.Index < other.Index
}
