package display

import (
	"sync"

	"github.com/robomaps/cartobridge/ros"
	"github.com/robomaps/cartobridge/submap"
)

// PerTrajectoryDisplay groups the drawable submaps of one trajectory under
// a shared visibility toggle.
type PerTrajectoryDisplay struct {
	trajectoryID int
	visible      bool
	submaps      map[int]*DrawableSubmap
}

// Visible reports whether the whole trajectory is enabled.
func (p *PerTrajectoryDisplay) Visible() bool { return p.visible }

// SetVisible toggles every submap in the trajectory at once.
func (p *PerTrajectoryDisplay) SetVisible(visible bool) {
	p.visible = visible
	for _, d := range p.submaps {
		d.SetVisible(visible)
	}
}

// Display owns the display state of every submap, grouped per trajectory.
// It is safe for concurrent use by the subscription and render paths.
type Display struct {
	mu           sync.Mutex
	fade         FadeConfig
	trajectories map[int]*PerTrajectoryDisplay
	onVisibility func(id submap.ID, visible bool)
}

// NewDisplay returns an empty display. The hook is invoked whenever any
// submap's visibility changes and may be nil.
func NewDisplay(fade FadeConfig, onVisibility func(id submap.ID, visible bool)) *Display {
	return &Display{
		fade:         fade,
		trajectories: map[int]*PerTrajectoryDisplay{},
		onVisibility: onVisibility,
	}
}

// ProcessSubmapList updates display state for every listed submap,
// creating drawables for previously unseen ones, and drops state for
// submaps no longer listed (trajectory finished or pruned upstream).
func (d *Display) ProcessSubmapList(list ros.SubmapList) {
	d.mu.Lock()
	defer d.mu.Unlock()

	live := map[submap.ID]bool{}
	for _, entry := range list.Submap {
		id := submap.ID{Trajectory: entry.TrajectoryID, Index: entry.SubmapIndex}
		live[id] = true
		traj, ok := d.trajectories[id.Trajectory]
		if !ok {
			traj = &PerTrajectoryDisplay{
				trajectoryID: id.Trajectory,
				visible:      true,
				submaps:      map[int]*DrawableSubmap{},
			}
			d.trajectories[id.Trajectory] = traj
		}
		drawable, ok := traj.submaps[id.Index]
		if !ok {
			hook := func(visible bool) {
				if d.onVisibility != nil {
					d.onVisibility(id, visible)
				}
			}
			drawable = NewDrawableSubmap(id, traj.visible, hook)
			traj.submaps[id.Index] = drawable
		}
		drawable.Update(ros.ToPose(entry.Pose), entry.SubmapVersion)
	}

	for trajID, traj := range d.trajectories {
		for index := range traj.submaps {
			if !live[submap.ID{Trajectory: trajID, Index: index}] {
				delete(traj.submaps, index)
			}
		}
		if len(traj.submaps) == 0 {
			delete(d.trajectories, trajID)
		}
	}
}

// SetTrackingZ refreshes every submap's fade alpha against the latest
// tracked height.
func (d *Display) SetTrackingZ(trackingZ float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, traj := range d.trajectories {
		for _, drawable := range traj.submaps {
			drawable.UpdateAlpha(d.fade, trackingZ)
		}
	}
}

// SetTrajectoryVisible toggles a whole trajectory.
func (d *Display) SetTrajectoryVisible(trajectoryID int, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if traj, ok := d.trajectories[trajectoryID]; ok {
		traj.SetVisible(visible)
	}
}

// SetSubmapVisible toggles one submap.
func (d *Display) SetSubmapVisible(id submap.ID, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if traj, ok := d.trajectories[id.Trajectory]; ok {
		if drawable, ok := traj.submaps[id.Index]; ok {
			drawable.SetVisible(visible)
		}
	}
}

// State returns the current alpha and visibility for one submap. Unknown
// submaps report invisible.
func (d *Display) State(id submap.ID) (alpha float64, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	traj, ok := d.trajectories[id.Trajectory]
	if !ok {
		return 0, false
	}
	drawable, ok := traj.submaps[id.Index]
	if !ok {
		return 0, false
	}
	return drawable.Alpha(), drawable.Visible()
}

// Len returns the total number of tracked submaps.
func (d *Display) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, traj := range d.trajectories {
		n += len(traj.submaps)
	}
	return n
}
