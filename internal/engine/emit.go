package engine

import (
	"go.uber.org/zap"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/interaction"
	"github.com/vectorforge/canvas/internal/store"
)

// dispatch sends an action to the store and reports any local document edit
// it produced to OnCommit.
func (e *Engine) dispatch(a store.Action) {
	prev := e.store.Snapshot()
	e.store.Dispatch(a)
	if e.opts.OnCommit == nil {
		return
	}
	next := e.store.Snapshot()
	if next.Document == prev.Document {
		return
	}
	if op := replayable(a, prev, next); op != nil {
		e.opts.OnCommit(op)
	}
}

// replayable rewrites an action into edits that do not depend on local
// state. A drawn layer becomes an InsertLayer and an inspector edit on the
// selection becomes explicit frames.
func replayable(a store.Action, prev, next store.State) store.Action {
	ops := collectOps(a, prev, next, nil)
	switch len(ops) {
	case 0:
		return nil
	case 1:
		return ops[0]
	default:
		return store.Batch{Actions: ops}
	}
}

func collectOps(a store.Action, prev, next store.State, ops []store.Action) []store.Action {
	switch a := a.(type) {
	case store.Batch:
		for _, inner := range a.Actions {
			ops = collectOps(inner, prev, next, ops)
		}
	case store.Commit:
		for _, inner := range a.Actions {
			ops = collectOps(inner, prev, next, ops)
		}
	case store.AddDrawnLayer:
		d, ok := prev.Interaction.(interaction.Drawing)
		if !ok {
			break
		}
		if l, ok := next.Document.Layer(d.LayerID); ok {
			ops = append(ops, store.InsertLayer{Layer: l, ParentID: l.Parent, PageID: next.PageID})
		}
	case store.SetLayerFrameValue:
		frames := make(map[string]document.Frame, len(prev.SelectedLayerIDs))
		for _, id := range prev.SelectedLayerIDs {
			if l, ok := next.Document.Layer(id); ok {
				frames[id] = l.Frame
			}
		}
		if len(frames) > 0 {
			ops = append(ops, store.SetLayerFrames{Frames: frames})
		}
	default:
		if store.IsDocumentEdit(a) {
			ops = append(ops, a)
		}
	}
	return ops
}

// EncodeCommits adapts a wire-level sink to Options.OnCommit. Edits that
// cannot be encoded are logged and not sent.
func EncodeCommits(logger *zap.Logger, send func(data []byte)) func(store.Action) {
	return func(a store.Action) {
		data, err := store.EncodeAction(a)
		if err != nil {
			logger.Error("encode committed edit", zap.String("action", a.Name()), zap.Error(err))
			return
		}
		send(data)
	}
}
