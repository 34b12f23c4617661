//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"go.uber.org/zap"

	"github.com/vectorforge/canvas/internal/engine"
	"github.com/vectorforge/canvas/internal/logger"
	"github.com/vectorforge/canvas/internal/store"
)

var (
	eng      *engine.Engine
	log      *zap.Logger
	capture  = &elementCapture{}
	onCommit js.Value
)

func main() {
	var err error
	log, err = logger.New(logger.Options{Level: "info"})
	if err != nil {
		log = zap.NewNop()
	}

	eng = engine.NewEngine(engine.Options{
		Capture:  capture,
		Logger:   log.Named("engine"),
		OnCommit: engine.EncodeCommits(log.Named("commit"), emitCommit),
	})

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("attachCanvas", js.FuncOf(attachCanvas))
	api.Set("setCanvasSize", js.FuncOf(setCanvasSize))
	api.Set("setInsets", js.FuncOf(setInsets))
	api.Set("setZoom", js.FuncOf(setZoom))
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("keyDown", js.FuncOf(keyDown))
	api.Set("selectTool", js.FuncOf(selectTool))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))
	api.Set("dispatch", js.FuncOf(dispatch))
	api.Set("applyRemote", js.FuncOf(applyRemote))
	api.Set("onCommit", js.FuncOf(setOnCommit))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(render))
	api.Set("overlay", js.FuncOf(overlay))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getInteractionMode", js.FuncOf(getInteractionMode))
	api.Set("getCursor", js.FuncOf(getCursor))

	js.Global().Set("vectorEngine", api)
	js.Global().Set("vectorWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() any {
	return js.ValueOf(map[string]any{"ok": true})
}

func fail(msg string) any {
	return js.ValueOf(map[string]any{"error": msg})
}

// elementCapture forwards capture to the canvas element. The DOM throws for
// pointers that are no longer active; those calls are ignored.
type elementCapture struct {
	el js.Value
}

func (c *elementCapture) SetPointerCapture(pointerID int) {
	c.call("setPointerCapture", pointerID)
}

func (c *elementCapture) ReleasePointerCapture(pointerID int) {
	c.call("releasePointerCapture", pointerID)
}

func (c *elementCapture) call(method string, pointerID int) {
	if !c.el.Truthy() {
		return
	}
	defer func() { recover() }()
	c.el.Call(method, pointerID)
}

func emitCommit(data []byte) {
	if onCommit.Type() != js.TypeFunction {
		return
	}
	onCommit.Invoke(string(data))
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing document JSON")
	}
	if err := eng.LoadDocument([]byte(args[0].String())); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	documentID := "doc_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		documentID = args[0].String()
	}
	eng.LoadSampleDocument(documentID)
	return ok()
}

func attachCanvas(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing canvas element")
	}
	capture.el = args[0]
	return ok()
}

func setCanvasSize(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	eng.SetCanvasSize(args[0].Float(), args[1].Float())
	return nil
}

func setInsets(this js.Value, args []js.Value) any {
	if len(args) < 4 {
		return nil
	}
	eng.SetInsets(engine.Insets{
		Left:   args[0].Float(),
		Top:    args[1].Float(),
		Right:  args[2].Float(),
		Bottom: args[3].Float(),
	})
	return nil
}

func setZoom(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	eng.SetZoom(args[0].Float())
	return nil
}

// pointerEvent reads a DOM PointerEvent.
func pointerEvent(args []js.Value) (engine.PointerEvent, bool) {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return engine.PointerEvent{}, false
	}
	ev := args[0]
	return engine.PointerEvent{
		OffsetX:   ev.Get("offsetX").Float(),
		OffsetY:   ev.Get("offsetY").Float(),
		PointerID: ev.Get("pointerId").Int(),
		Modifiers: modifiers(ev),
	}, true
}

func modifiers(ev js.Value) engine.Modifiers {
	return engine.Modifiers{
		Shift: ev.Get("shiftKey").Truthy(),
		Meta:  ev.Get("metaKey").Truthy(),
		Alt:   ev.Get("altKey").Truthy(),
		Ctrl:  ev.Get("ctrlKey").Truthy(),
	}
}

func pointerDown(this js.Value, args []js.Value) any {
	if ev, ok := pointerEvent(args); ok {
		eng.PointerDown(ev)
	}
	return nil
}

func pointerMove(this js.Value, args []js.Value) any {
	if ev, ok := pointerEvent(args); ok {
		eng.PointerMove(ev)
	}
	return nil
}

func pointerUp(this js.Value, args []js.Value) any {
	if ev, ok := pointerEvent(args); ok {
		eng.PointerUp(ev)
	}
	return nil
}

// keyDown reads a DOM KeyboardEvent.
func keyDown(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return nil
	}
	ev := args[0]
	eng.KeyDown(ev.Get("key").String(), modifiers(ev))
	return nil
}

func selectTool(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	eng.SelectTool(args[0].String())
	return nil
}

func undo(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Undo())
}

func redo(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Redo())
}

func dispatch(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing action JSON")
	}
	a, err := store.DecodeAction([]byte(args[0].String()))
	if err != nil {
		return fail(err.Error())
	}
	eng.Dispatch(a)
	return ok()
}

func applyRemote(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing action JSON")
	}
	a, err := store.DecodeAction([]byte(args[0].String()))
	if err != nil {
		return fail(err.Error())
	}
	if err := eng.ApplyRemote(a); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func setOnCommit(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		onCommit = js.Undefined()
		return nil
	}
	onCommit = args[0]
	return nil
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Render())
}

func overlay(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Overlay())
}

func getDocument(this js.Value, args []js.Value) any {
	data, err := eng.DocumentJSON()
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(string(data))
}

func getSelection(this js.Value, args []js.Value) any {
	data, err := json.Marshal(eng.SelectedLayerIDs())
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(string(data))
}

func getSelectionBounds(this js.Value, args []js.Value) any {
	data, err := json.Marshal(eng.SelectionBounds())
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(string(data))
}

func getInteractionMode(this js.Value, args []js.Value) any {
	return js.ValueOf(string(eng.InteractionMode()))
}

func getCursor(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Cursor())
}
