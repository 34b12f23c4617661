package collab

import (
	"maps"
	"sync"
)

type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // clientID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(clientID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[clientID] = p
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.presences)
}

// PruneSelection drops ids that no longer exist from every shared selection,
// so remote selection outlines never point at deleted layers.
func (pm *PresenceManager) PruneSelection(exists func(id string) bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for clientID, p := range pm.presences {
		kept := make([]string, 0, len(p.Selection))
		for _, id := range p.Selection {
			if exists(id) {
				kept = append(kept, id)
			}
		}
		if len(kept) != len(p.Selection) {
			next := *p
			next.Selection = kept
			pm.presences[clientID] = &next
		}
	}
}

func (pm *PresenceManager) StateMessage() (*Message, error) {
	all := pm.GetAll()
	if all == nil {
		all = map[string]*PresencePayload{}
	}
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: all})
}
