package engine

import (
	"go.uber.org/zap"

	"github.com/vectorforge/canvas/internal/interaction"
)

// PointerCapture is the host surface that can route a pointer's events to the
// canvas while a drag leaves its bounds. In the browser it wraps
// Element.setPointerCapture.
type PointerCapture interface {
	SetPointerCapture(pointerID int)
	ReleasePointerCapture(pointerID int)
}

type noCapture struct{}

func (noCapture) SetPointerCapture(int)     {}
func (noCapture) ReleasePointerCapture(int) {}

// captureGuard pairs capture with the drag states. reconcile runs after every
// event, so capture is held exactly while the interaction requires it and is
// released once when the interaction leaves those states, however it leaves.
type captureGuard struct {
	target    PointerCapture
	logger    *zap.Logger
	held      bool
	pointerID int
}

func (g *captureGuard) reconcile(state interaction.State, pointerID int) {
	want := interaction.RequiresCapture(state)
	switch {
	case want && !g.held:
		g.target.SetPointerCapture(pointerID)
		g.held, g.pointerID = true, pointerID
		g.logger.Debug("pointer captured", zap.Int("pointer", pointerID), zap.String("mode", string(state.Mode())))
	case !want && g.held:
		g.target.ReleasePointerCapture(g.pointerID)
		g.held = false
		g.logger.Debug("pointer released", zap.Int("pointer", g.pointerID))
	}
}

func (g *captureGuard) Held() bool { return g.held }
