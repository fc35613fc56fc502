package display

import (
	"fmt"

	"github.com/robomaps/cartobridge/spatial"
	"github.com/robomaps/cartobridge/submap"
)

// DrawableSubmap tracks the display state of one submap: its latest pose,
// its fade alpha, a version-derived label, and a visibility toggle with an
// on-change hook for whoever owns the render loop.
type DrawableSubmap struct {
	id    submap.ID
	pose  spatial.Pose
	alpha float64
	label string

	visible      bool
	onVisibility func(visible bool)
}

// NewDrawableSubmap returns display state for one submap. The hook may be
// nil.
func NewDrawableSubmap(id submap.ID, visible bool, onVisibility func(bool)) *DrawableSubmap {
	return &DrawableSubmap{
		id:           id,
		alpha:        1,
		visible:      visible,
		onVisibility: onVisibility,
	}
}

// ID returns the submap's identity.
func (d *DrawableSubmap) ID() submap.ID { return d.id }

// IDText returns the "(trajectory,index)" marker text drawn next to the
// submap.
func (d *DrawableSubmap) IDText() string { return d.id.String() }

// Label returns the "index.version" display label.
func (d *DrawableSubmap) Label() string { return d.label }

// Pose returns the latest metadata pose.
func (d *DrawableSubmap) Pose() spatial.Pose { return d.pose }

// Alpha returns the current fade alpha.
func (d *DrawableSubmap) Alpha() float64 { return d.alpha }

// Update records the latest metadata for this submap.
func (d *DrawableSubmap) Update(pose spatial.Pose, version int) {
	d.pose = pose
	d.label = fmt.Sprintf("%d.%d", d.id.Index, version)
}

// UpdateAlpha recomputes the fade alpha against the tracked height.
func (d *DrawableSubmap) UpdateAlpha(cfg FadeConfig, trackingZ float64) {
	d.alpha = cfg.Alpha(d.pose.Translation.Z, trackingZ, d.alpha)
}

// Visible reports whether the submap should be drawn.
func (d *DrawableSubmap) Visible() bool { return d.visible }

// SetVisible toggles the submap and invokes the on-change hook when the
// value actually changed.
func (d *DrawableSubmap) SetVisible(visible bool) {
	if d.visible == visible {
		return
	}
	d.visible = visible
	if d.onVisibility != nil {
		d.onVisibility(visible)
	}
}
