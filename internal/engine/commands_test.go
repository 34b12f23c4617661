package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
	"github.com/vectorforge/canvas/internal/interaction"
)

func renderOps(t *testing.T, h *harness) []DrawCommand {
	t.Helper()
	var commands []DrawCommand
	require.NoError(t, json.Unmarshal([]byte(h.Render()), &commands))
	return commands
}

func TestRenderPaintOrderAndClipping(t *testing.T) {
	board := document.Layer{
		ID: "board", Type: document.LayerTypeArtboard, Visible: true,
		Children: []string{"inner", "hidden"},
		Frame:    document.Frame{X: 10, Y: 10, Width: 100, Height: 100},
		Style:    document.Style{Fill: "#ffffff", Opacity: 1},
	}
	hidden := withParent(rect("hidden", 0, 0, 5, 5), "board")
	hidden.Visible = false
	oval := rect("oval", 200, 0, 20, 10)
	oval.Type = document.LayerTypeOval

	h := newHarness(t, board, withParent(rect("inner", 0, 0, 10, 10), "board"), hidden, oval)

	var ops []string
	var ids []string
	for _, c := range renderOps(t, h) {
		ops = append(ops, c.Op)
		if c.Op != "clip" && c.LayerID != "" {
			ids = append(ids, c.LayerID)
		}
	}
	assert.Equal(t, []string{"save", "path", "clip", "path", "restore", "path"}, ops)
	assert.Equal(t, []string{"board", "inner", "oval"}, ids)
}

func TestRenderShowsMoveInProgress(t *testing.T) {
	h := newHarness(t, rect("a", 0, 0, 50, 50))
	h.down(25, 25)
	h.move(35, 45)

	commands := renderOps(t, h)
	require.Len(t, commands, 1)
	assert.Equal(t, []float64{1, 0, 0, 1, 10, 20}, commands[0].Transform)
	assert.Equal(t, 0.0, h.frame(t, "a").X)
}

func TestOverlay(t *testing.T) {
	h := newHarness(t, rect("a", 0, 0, 50, 50), rect("b", 100, 0, 50, 50))
	h.click(25, 25)
	h.move(120, 20)

	var o Overlay
	require.NoError(t, json.Unmarshal([]byte(h.Overlay()), &o))
	assert.Equal(t, interaction.ModeNone, o.Mode)
	require.NotNil(t, o.SelectionBounds)
	assert.Equal(t, geometry.Rect{Width: 50, Height: 50}, *o.SelectionBounds)
	assert.Len(t, o.Handles, 8)
	assert.Equal(t, 10.0, o.HandleSize)
	require.NotNil(t, o.Hover)
	assert.Equal(t, "b", o.Hover.LayerID)

	h.down(200, 200)
	h.move(260, 230)
	o = Overlay{}
	require.NoError(t, json.Unmarshal([]byte(h.Overlay()), &o))
	require.NotNil(t, o.Marquee)
	assert.Equal(t, geometry.Rect{X: 200, Y: 200, Width: 60, Height: 30}, *o.Marquee)
	assert.Empty(t, o.Handles)
}
