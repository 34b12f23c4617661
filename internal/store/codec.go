package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownAction = errors.New("unknown action")

// Envelope is the wire form of an action: a type tag and its JSON payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type valuePayload struct {
	Value float64   `json:"value"`
	Mode  ValueMode `json:"mode,omitempty"`
}

var frameFields = map[string]FrameField{
	"setLayerX":        FieldX,
	"setLayerY":        FieldY,
	"setLayerWidth":    FieldWidth,
	"setLayerHeight":   FieldHeight,
	"setLayerRotation": FieldRotation,
}

// EncodeAction serializes an action for the WASM bridge or the collaboration
// channel. Interaction actions and AddDrawnLayer only make sense locally and
// are rejected.
func EncodeAction(a Action) ([]byte, error) {
	env, err := envelope(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func envelope(a Action) (Envelope, error) {
	var payload any
	switch a := a.(type) {
	case SetLayerFrameValue:
		payload = valuePayload{Value: a.Value, Mode: a.Mode}
	case Batch:
		envs, err := envelopes(a.Actions)
		if err != nil {
			return Envelope{}, err
		}
		payload = envs
	case Commit:
		envs, err := envelopes(a.Actions)
		if err != nil {
			return Envelope{}, err
		}
		payload = envs
	case SelectLayers, SetHighlightedLayer, InsertLayer, MoveLayers, ScaleLayers,
		SetLayerFrames, SetLayerVisible, SetLayerLocked, SetConstrainProportions, FlipLayers,
		DeleteLayers, SelectPage, SetZoom, Pan:
		payload = a
	default:
		return Envelope{}, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", a.Name(), err)
	}
	return Envelope{Type: a.Name(), Payload: raw}, nil
}

func envelopes(actions []Action) ([]Envelope, error) {
	out := make([]Envelope, 0, len(actions))
	for _, inner := range actions {
		env, err := envelope(inner)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

// DecodeAction parses the wire form produced by EncodeAction.
func DecodeAction(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	return env.Decode()
}

// Decode converts the envelope into a typed action.
func (env Envelope) Decode() (Action, error) {
	if field, ok := frameFields[env.Type]; ok {
		var p valuePayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		if p.Mode == "" {
			p.Mode = ValueReplace
		}
		return SetLayerFrameValue{Field: field, Value: p.Value, Mode: p.Mode}, nil
	}

	switch env.Type {
	case "selectLayer":
		return decodeAs[SelectLayers](env)
	case "highlightLayer":
		return decodeAs[SetHighlightedLayer](env)
	case "insertLayer":
		return decodeAs[InsertLayer](env)
	case "moveLayers":
		return decodeAs[MoveLayers](env)
	case "scaleLayers":
		return decodeAs[ScaleLayers](env)
	case "setLayerFrames":
		return decodeAs[SetLayerFrames](env)
	case "setLayerVisible":
		return decodeAs[SetLayerVisible](env)
	case "setLayerLocked":
		return decodeAs[SetLayerLocked](env)
	case "setConstrainProportions":
		return decodeAs[SetConstrainProportions](env)
	case "flipLayers":
		return decodeAs[FlipLayers](env)
	case "deleteLayers":
		return decodeAs[DeleteLayers](env)
	case "selectPage":
		return decodeAs[SelectPage](env)
	case "setZoom":
		return decodeAs[SetZoom](env)
	case "pan":
		return decodeAs[Pan](env)
	case "batch", "commit":
		var envs []Envelope
		if err := unmarshalPayload(env, &envs); err != nil {
			return nil, err
		}
		actions := make([]Action, 0, len(envs))
		for _, inner := range envs {
			a, err := inner.Decode()
			if err != nil {
				return nil, err
			}
			actions = append(actions, a)
		}
		if env.Type == "commit" {
			return Commit{Actions: actions}, nil
		}
		return Batch{Actions: actions}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
}

func decodeAs[T Action](env Envelope) (Action, error) {
	var a T
	if err := unmarshalPayload(env, &a); err != nil {
		return nil, err
	}
	return a, nil
}

func unmarshalPayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return nil
}

// IsDocumentEdit reports whether an action only edits the document and carries
// everything needed to replay it on another replica. These are the actions
// accepted as collaboration operations.
func IsDocumentEdit(a Action) bool {
	switch a := a.(type) {
	case InsertLayer, MoveLayers, ScaleLayers, SetLayerFrames, SetLayerVisible, SetLayerLocked,
		SetConstrainProportions, FlipLayers, DeleteLayers:
		return true
	case Batch:
		return allDocumentEdits(a.Actions)
	case Commit:
		return allDocumentEdits(a.Actions)
	}
	return false
}

func allDocumentEdits(actions []Action) bool {
	if len(actions) == 0 {
		return false
	}
	for _, a := range actions {
		if !IsDocumentEdit(a) {
			return false
		}
	}
	return true
}
