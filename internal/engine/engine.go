// Package engine is the canvas interaction engine. It turns raw pointer and
// keyboard events into store actions, keeps pointer capture paired with drag
// gestures, and produces draw and overlay commands for the renderer.
package engine

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
	"github.com/vectorforge/canvas/internal/interaction"
	"github.com/vectorforge/canvas/internal/scene"
	"github.com/vectorforge/canvas/internal/store"
	"github.com/vectorforge/canvas/internal/typeid"
)

// DefaultDragThreshold is the distance in document units, on either axis, a
// press must travel before it becomes a drag.
const DefaultDragThreshold = 2.0

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	DragThreshold float64
	HistoryLimit  int
	// NewLayerID allocates ids for drawn layers.
	NewLayerID func() string
	Capture    PointerCapture
	Logger     *zap.Logger
	// OnCommit receives every local document edit in its replayable form,
	// ready to be sent to collaborators.
	OnCommit func(store.Action)
}

func (o Options) withDefaults() Options {
	if o.DragThreshold <= 0 {
		o.DragThreshold = DefaultDragThreshold
	}
	if o.HistoryLimit == 0 {
		o.HistoryLimit = store.DefaultHistoryLimit
	}
	if o.NewLayerID == nil {
		o.NewLayerID = typeid.NewLayerID
	}
	if o.Capture == nil {
		o.Capture = noCapture{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Engine owns the editor store and routes input events into it. It is driven
// from a single goroutine.
type Engine struct {
	opts    Options
	logger  *zap.Logger
	store   *store.Store
	router  Router
	capture captureGuard

	// Cached scene graph of the present document
	sceneGraph *scene.SceneGraph
	sceneDoc   *document.Document
	scenePage  string

	// Last modifiers seen; a resize preview depends on shift
	modifiers Modifiers
}

// NewEngine creates an engine with an empty document.
func NewEngine(opts Options) *Engine {
	opts = opts.withDefaults()
	doc := document.NewEmptyDocument(typeid.NewDocumentID(), "Untitled", typeid.NewPageID())
	return &Engine{
		opts:    opts,
		logger:  opts.Logger,
		store:   store.New(doc, store.WithLogger(opts.Logger), store.WithHistoryLimit(opts.HistoryLimit)),
		capture: captureGuard{target: opts.Capture, logger: opts.Logger},
	}
}

// Store exposes the underlying store for selectors and tests.
func (e *Engine) Store() *store.Store { return e.store }

// Snapshot returns the present editor state.
func (e *Engine) Snapshot() store.State { return e.store.Snapshot() }

// --- Document lifecycle ---

// LoadDocument replaces the document with one decoded from JSON. History is
// cleared and any gesture is abandoned.
func (e *Engine) LoadDocument(data []byte) error {
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	e.load(&doc)
	return nil
}

// LoadSampleDocument loads the built-in sample document.
func (e *Engine) LoadSampleDocument(documentID string) {
	e.load(document.NewSampleDocument(documentID))
}

func (e *Engine) load(doc *document.Document) {
	e.store.Load(doc)
	e.capture.reconcile(e.store.Snapshot().Interaction, e.capture.pointerID)
	e.logger.Info("document loaded",
		zap.String("document", doc.ID),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("layers", len(doc.Layers)),
	)
}

// DocumentJSON returns the present document.
func (e *Engine) DocumentJSON() ([]byte, error) {
	return json.Marshal(e.store.Snapshot().Document)
}

// --- Renderer surface ---

func (e *Engine) SetCanvasSize(width, height float64) { e.router.SetCanvasSize(width, height) }

func (e *Engine) SetInsets(i Insets) { e.router.SetInsets(i) }

// SetZoom zooms about the center of the visible canvas.
func (e *Engine) SetZoom(zoom float64) {
	s := e.store.Snapshot()
	if zoom <= 0 {
		return
	}
	zoom = min(max(zoom, store.MinZoom), store.MaxZoom)

	w, h := e.router.VisibleSize()
	center := geometry.Point{X: w / 2, Y: h / 2}
	anchor := DocumentPoint(center, s.Viewport)
	next := store.Viewport{Zoom: zoom}
	next.ScrollOrigin = center.Sub(anchor.Scale(zoom))

	e.dispatch(store.Batch{Actions: []store.Action{
		store.SetZoom{Zoom: zoom},
		store.Pan{Delta: next.ScrollOrigin.Sub(s.Viewport.ScrollOrigin)},
	}})
}

// --- Store passthrough ---

// Dispatch applies an action built outside the canvas, such as an inspector
// edit. Local document edits are reported through OnCommit.
func (e *Engine) Dispatch(a store.Action) {
	e.dispatch(a)
}

// ApplyRemote applies a collaborator's edit. It is not reported back through
// OnCommit and does not create an undo entry of its own.
func (e *Engine) ApplyRemote(a store.Action) error {
	if !store.IsDocumentEdit(a) {
		return fmt.Errorf("%w: %s is not a document edit", store.ErrUnknownAction, a.Name())
	}
	defer e.reconcile(e.capture.pointerID)
	e.store.Apply(a)
	return nil
}

func (e *Engine) Undo() bool {
	defer e.reconcile(e.capture.pointerID)
	return e.store.Undo()
}

func (e *Engine) Redo() bool {
	defer e.reconcile(e.capture.pointerID)
	return e.store.Redo()
}

// --- Selectors ---

func (e *Engine) SelectedLayerIDs() []string {
	return store.SelectedLayerIDs(e.store.Snapshot())
}

func (e *Engine) SelectionBounds() geometry.Rect {
	return store.SelectionBounds(e.store.Snapshot(), e.scene())
}

func (e *Engine) InteractionMode() interaction.Mode {
	return store.InteractionMode(e.store.Snapshot())
}

func (e *Engine) HighlightedLayerID() string {
	return store.HighlightedLayerID(e.store.Snapshot())
}

func (e *Engine) Cursor() string {
	return store.Cursor(e.store.Snapshot())
}

// CaptureHeld reports whether the engine holds pointer capture.
func (e *Engine) CaptureHeld() bool { return e.capture.Held() }

// scene returns the scene graph of the present document, rebuilding it only
// when the document snapshot or page changed.
func (e *Engine) scene() *scene.SceneGraph {
	s := e.store.Snapshot()
	if e.sceneGraph == nil || e.sceneDoc != s.Document || e.scenePage != s.PageID {
		e.sceneGraph = store.SceneGraph(s)
		e.sceneDoc, e.scenePage = s.Document, s.PageID
	}
	return e.sceneGraph
}
