package store

import (
	"slices"

	"github.com/vectorforge/canvas/internal/document"
)

// editor applies copy-on-write edits to a document snapshot. The source
// document is cloned on the first write, so an editor that never writes
// hands back the original pointer and the dispatch is a no-op.
type editor struct {
	src *document.Document
	doc *document.Document
}

func newEditor(doc *document.Document) *editor {
	return &editor{src: doc}
}

func (e *editor) current() *document.Document {
	if e.doc != nil {
		return e.doc
	}
	return e.src
}

func (e *editor) writable() *document.Document {
	if e.doc == nil {
		e.doc = e.src.ShallowClone()
	}
	return e.doc
}

func (e *editor) layer(id string) (document.Layer, bool) {
	return e.current().Layer(id)
}

func (e *editor) changed() bool { return e.doc != nil }

// result returns the edited document, or the source if nothing was written.
func (e *editor) result() *document.Document { return e.current() }

// update rewrites one layer. It skips the write when fn leaves the layer equal
// to what it was.
func (e *editor) update(id string, fn func(l *document.Layer)) {
	l, ok := e.layer(id)
	if !ok {
		return
	}
	before := l
	l.Children = slices.Clone(l.Children)
	fn(&l)
	if layersEqual(before, l) {
		return
	}
	e.writable().Layers[id] = l
}

func (e *editor) put(l document.Layer) {
	e.writable().Layers[l.ID] = l
}

// appendChild adds id on top of parentID's children, or on top of the page
// when parentID is empty.
func (e *editor) appendChild(pageID, parentID, id string) {
	doc := e.writable()
	if parentID == "" {
		for i, p := range doc.Pages {
			if p.ID == pageID {
				p.Layers = append(slices.Clone(p.Layers), id)
				doc.Pages[i] = p
				return
			}
		}
		return
	}
	parent := doc.Layers[parentID]
	parent.Children = append(slices.Clone(parent.Children), id)
	doc.Layers[parentID] = parent
}

// remove deletes a layer and its subtree and unlinks it from its parent.
func (e *editor) remove(id string) {
	l, ok := e.layer(id)
	if !ok {
		return
	}
	doc := e.writable()
	if l.Parent != "" {
		if parent, ok := doc.Layers[l.Parent]; ok {
			parent.Children = slices.DeleteFunc(slices.Clone(parent.Children), func(c string) bool { return c == id })
			doc.Layers[l.Parent] = parent
		}
	} else {
		for i, p := range doc.Pages {
			if slices.Contains(p.Layers, id) {
				p.Layers = slices.DeleteFunc(slices.Clone(p.Layers), func(c string) bool { return c == id })
				doc.Pages[i] = p
			}
		}
	}
	var drop func(id string)
	drop = func(id string) {
		l, ok := doc.Layers[id]
		if !ok {
			return
		}
		for _, c := range l.Children {
			drop(c)
		}
		delete(doc.Layers, id)
	}
	drop(id)
}

func layersEqual(a, b document.Layer) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.Type == b.Type &&
		a.Parent == b.Parent &&
		slices.Equal(a.Children, b.Children) &&
		a.Frame == b.Frame &&
		a.Style == b.Style &&
		a.Visible == b.Visible &&
		a.Locked == b.Locked &&
		string(a.Data) == string(b.Data)
}
