package document

import (
	"encoding/json"
	"time"

	"github.com/vectorforge/canvas/internal/typeid"
)

// NewSampleDocument builds the playground document: an artboard holding a few
// shapes and a group, plus a rotated rectangle on the open canvas.
func NewSampleDocument(documentID string) *Document {
	now := time.Now().UTC().Format(time.RFC3339)

	pageID := typeid.NewPageID()
	artboardID := typeid.NewLayerID()
	rectID := typeid.NewLayerID()
	ovalID := typeid.NewLayerID()
	textID := typeid.NewLayerID()
	groupID := typeid.NewLayerID()
	groupRectAID := typeid.NewLayerID()
	groupRectBID := typeid.NewLayerID()
	rotatedID := typeid.NewLayerID()

	shape := func(id, name string, t LayerType, parent string, frame Frame, fill string) Layer {
		return Layer{
			ID:      id,
			Name:    name,
			Type:    t,
			Parent:  parent,
			Frame:   frame,
			Style:   Style{Fill: fill, Stroke: "#000000", StrokeWidth: 1, Opacity: 1},
			Visible: true,
		}
	}

	text := shape(textID, "Title", LayerTypeText, artboardID, Frame{X: 40, Y: 24, Width: 240, Height: 32}, "#1a1a2e")
	text.Data = json.RawMessage(`{"text": "Hello canvas"}`)

	return &Document{
		ID:        documentID,
		Name:      "Untitled",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Pages: []Page{
			{ID: pageID, Name: "Page 1", Layers: []string{artboardID, rotatedID}},
		},
		Layers: map[string]Layer{
			artboardID: {
				ID:       artboardID,
				Name:     "iPhone",
				Type:     LayerTypeArtboard,
				Children: []string{rectID, ovalID, textID, groupID},
				Frame:    Frame{X: 0, Y: 0, Width: 375, Height: 812},
				Style:    Style{Fill: "#ffffff", Opacity: 1},
				Visible:  true,
			},
			rectID: shape(rectID, "Card", LayerTypeRectangle, artboardID,
				Frame{X: 40, Y: 80, Width: 200, Height: 150}, "#e94560"),
			ovalID: shape(ovalID, "Avatar", LayerTypeOval, artboardID,
				Frame{X: 260, Y: 80, Width: 80, Height: 80, ConstrainProportions: true}, "#0f3460"),
			textID: text,
			groupID: {
				ID:       groupID,
				Name:     "Buttons",
				Type:     LayerTypeGroup,
				Parent:   artboardID,
				Children: []string{groupRectAID, groupRectBID},
				Frame:    Frame{X: 40, Y: 300, Width: 300, Height: 48},
				Style:    Style{Opacity: 1},
				Visible:  true,
			},
			groupRectAID: shape(groupRectAID, "Cancel", LayerTypeRectangle, groupID,
				Frame{X: 0, Y: 0, Width: 140, Height: 48}, "#53d769"),
			groupRectBID: shape(groupRectBID, "OK", LayerTypeRectangle, groupID,
				Frame{X: 160, Y: 0, Width: 140, Height: 48}, "#f5a623"),
			rotatedID: shape(rotatedID, "Sticker", LayerTypeRectangle, "",
				Frame{X: 500, Y: 100, Width: 120, Height: 60, Rotation: 30}, "#bd10e0"),
		},
		SharedStyles: map[string]SharedStyle{},
		Swatches: map[string]Swatch{
			"brand": {ID: "brand", Name: "Brand", Color: "#e94560"},
		},
		Assets: map[string]Asset{},
	}
}
