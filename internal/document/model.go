package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/vectorforge/canvas/internal/geometry"
)

var ErrInvalidDocument = errors.New("invalid document")

type Document struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Version      int                    `json:"version"`
	CreatedAt    string                 `json:"createdAt"`
	UpdatedAt    string                 `json:"updatedAt"`
	Pages        []Page                 `json:"pages"`
	Layers       map[string]Layer       `json:"layers"`
	SharedStyles map[string]SharedStyle `json:"sharedStyles"`
	Swatches     map[string]Swatch      `json:"swatches"`
	Assets       map[string]Asset       `json:"assets"`
}

// Page owns a tree of layers. Layers lists the top-level layer ids back-to-front.
type Page struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Layers []string `json:"layers"`
}

type LayerType string

const (
	LayerTypeArtboard       LayerType = "artboard"
	LayerTypeRectangle      LayerType = "rectangle"
	LayerTypeOval           LayerType = "oval"
	LayerTypeText           LayerType = "text"
	LayerTypeGroup          LayerType = "group"
	LayerTypeSymbolMaster   LayerType = "symbolMaster"
	LayerTypeSymbolInstance LayerType = "symbolInstance"
	LayerTypeBitmap         LayerType = "bitmap"
)

// IsContainer reports whether layers of this type own child layers.
func (t LayerType) IsContainer() bool {
	return t == LayerTypeArtboard || t == LayerTypeGroup || t == LayerTypeSymbolMaster
}

// ClipsChildren reports whether the type masks its children to its frame.
func (t LayerType) ClipsChildren() bool {
	return t == LayerTypeArtboard || t == LayerTypeSymbolMaster
}

// Frame is a layer's geometry in its parent's coordinate space.
// Rotation is in degrees and applied about the frame's center.
type Frame struct {
	X                    float64 `json:"x"`
	Y                    float64 `json:"y"`
	Width                float64 `json:"width"`
	Height               float64 `json:"height"`
	Rotation             float64 `json:"rotation"`
	IsFlippedHorizontal  bool    `json:"isFlippedHorizontal"`
	IsFlippedVertical    bool    `json:"isFlippedVertical"`
	ConstrainProportions bool    `json:"constrainProportions"`
}

// Rect returns the unrotated frame rectangle.
func (f Frame) Rect() geometry.Rect {
	return geometry.Rect{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height}
}

// Matrix maps frame-local coordinates into the parent's space.
func (f Frame) Matrix() geometry.Matrix2D {
	return geometry.FrameMatrix(f.Rect(), f.Rotation, f.IsFlippedHorizontal, f.IsFlippedVertical)
}

type Style struct {
	Fill          string  `json:"fill"`
	Stroke        string  `json:"stroke"`
	StrokeWidth   float64 `json:"strokeWidth"`
	Opacity       float64 `json:"opacity"`
	SharedStyleID string  `json:"sharedStyleId,omitempty"`
}

type Layer struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     LayerType       `json:"type"`
	Parent   string          `json:"parent,omitempty"`
	Children []string        `json:"children,omitempty"`
	Frame    Frame           `json:"frame"`
	Style    Style           `json:"style"`
	Visible  bool            `json:"visible"`
	Locked   bool            `json:"locked"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type SharedStyle struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Style Style  `json:"style"`
}

type Swatch struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Asset struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// NewEmptyDocument creates a document with a single empty page.
func NewEmptyDocument(documentID, name, pageID string) *Document {
	return &Document{
		ID:      documentID,
		Name:    name,
		Version: 1,
		Pages: []Page{
			{ID: pageID, Name: "Page 1", Layers: []string{}},
		},
		Layers:       map[string]Layer{},
		SharedStyles: map[string]SharedStyle{},
		Swatches:     map[string]Swatch{},
		Assets:       map[string]Asset{},
	}
}

// Page returns the page with the given id.
func (d *Document) Page(id string) (Page, bool) {
	for _, p := range d.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return Page{}, false
}

// Layer returns the layer with the given id.
func (d *Document) Layer(id string) (Layer, bool) {
	l, ok := d.Layers[id]
	return l, ok
}

// PageOf returns the id of the page whose tree contains layerID.
func (d *Document) PageOf(layerID string) string {
	id := layerID
	for {
		l, ok := d.Layers[id]
		if !ok {
			return ""
		}
		if l.Parent == "" {
			break
		}
		id = l.Parent
	}
	for _, p := range d.Pages {
		if slices.Contains(p.Layers, id) {
			return p.ID
		}
	}
	return ""
}

// ShallowClone copies the page slice and the layer arena so the copy can be
// edited without affecting d. Layer values, child slices and assets are shared;
// editors must replace them rather than mutate in place.
func (d *Document) ShallowClone() *Document {
	c := *d
	c.Pages = slices.Clone(d.Pages)
	c.Layers = maps.Clone(d.Layers)
	return &c
}

// Validate checks the structural invariants of the layer tree: every
// referenced id exists, parent links match child lists, and each layer
// appears exactly once.
func (d *Document) Validate() error {
	if len(d.Pages) == 0 {
		return fmt.Errorf("%w: no pages", ErrInvalidDocument)
	}

	seen := make(map[string]bool, len(d.Layers))
	var walk func(parent string, ids []string) error
	walk = func(parent string, ids []string) error {
		for _, id := range ids {
			l, ok := d.Layers[id]
			if !ok {
				return fmt.Errorf("%w: missing layer %s", ErrInvalidDocument, id)
			}
			if seen[id] {
				return fmt.Errorf("%w: duplicate layer %s", ErrInvalidDocument, id)
			}
			seen[id] = true
			if l.ID != id {
				return fmt.Errorf("%w: layer key %s holds id %s", ErrInvalidDocument, id, l.ID)
			}
			if l.Parent != parent {
				return fmt.Errorf("%w: layer %s has parent %q, expected %q", ErrInvalidDocument, id, l.Parent, parent)
			}
			if len(l.Children) > 0 && !l.Type.IsContainer() {
				return fmt.Errorf("%w: %s layer %s has children", ErrInvalidDocument, l.Type, id)
			}
			if err := walk(id, l.Children); err != nil {
				return err
			}
		}
		return nil
	}

	pageIDs := make(map[string]bool, len(d.Pages))
	for _, p := range d.Pages {
		if pageIDs[p.ID] {
			return fmt.Errorf("%w: duplicate page %s", ErrInvalidDocument, p.ID)
		}
		pageIDs[p.ID] = true
		if err := walk("", p.Layers); err != nil {
			return err
		}
	}

	if len(seen) != len(d.Layers) {
		return fmt.Errorf("%w: %d layers are not reachable from any page", ErrInvalidDocument, len(d.Layers)-len(seen))
	}
	return nil
}
