package interaction

import (
	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
)

// Snapshot is the flat JSON form of a State, used by the WASM bridge and by
// collaborator presence.
type Snapshot struct {
	Mode      Mode                      `json:"mode"`
	Origin    *geometry.Point           `json:"origin,omitempty"`
	Current   *geometry.Point           `json:"current,omitempty"`
	Direction geometry.CompassDirection `json:"direction,omitempty"`
	ShapeType document.LayerType        `json:"shapeType,omitempty"`
	LayerID   string                    `json:"layerId,omitempty"`
}

// Describe flattens a state for serialization.
func Describe(s State) Snapshot {
	if s == nil {
		return Snapshot{Mode: ModeNone}
	}
	snap := Snapshot{Mode: s.Mode()}
	point := func(p geometry.Point) *geometry.Point { return &p }

	switch s := s.(type) {
	case HoverHandle:
		snap.Direction = s.Direction
	case MaybePan:
		snap.Origin = point(s.Origin)
	case Panning:
		snap.Current = point(s.Previous)
	case MaybeMove:
		snap.Origin = point(s.Origin)
	case Moving:
		snap.Origin, snap.Current = point(s.Origin), point(s.Current)
	case MaybeScale:
		snap.Origin, snap.Direction = point(s.Origin), s.Direction
	case Scaling:
		snap.Origin, snap.Current, snap.Direction = point(s.Origin), point(s.Current), s.Direction
	case Drawing:
		snap.Origin, snap.Current = point(s.Origin), point(s.Current)
		snap.ShapeType, snap.LayerID = s.ShapeType, s.LayerID
	case Marquee:
		snap.Origin, snap.Current = point(s.Origin), point(s.Current)
	case Insert:
		snap.ShapeType = s.ShapeType
	}
	return snap
}
