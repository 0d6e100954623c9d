package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Features is the number of components in a lander observation
const Features = 6

// Protocol holds the message type strings of a wire dialect
type Protocol struct {
	ResetType string
	StepType  string
	ReplyType string
}

// DefaultProtocol returns the dialect spoken by the Python trainer
func DefaultProtocol() Protocol {
	return Protocol{
		ResetType: "reset",
		StepType:  "step",
		ReplyType: "OBSERVATION_RESPONSE",
	}
}

// AndroidProtocol returns the dialect spoken by the Android game
func AndroidProtocol() Protocol {
	return Protocol{
		ResetType: "RESET_REQUEST",
		StepType:  "STEP_REQUEST",
		ReplyType: "OBSERVATION_RESPONSE",
	}
}

// Validate checks that the dialect can distinguish its requests
func (p Protocol) Validate() error {
	if p.ResetType == "" || p.StepType == "" {
		return fmt.Errorf("request types cannot be empty")
	}
	if p.ResetType == p.StepType {
		return fmt.Errorf("reset and step request types must differ")
	}
	return nil
}

// Request is an outbound reset or step request. Action is the remote
// key code and is only set on step requests.
type Request struct {
	Type   string `json:"type"`
	Action *int   `json:"action,omitempty"`
}

// EncodeReset returns the wire encoding of a reset request
func (p Protocol) EncodeReset() ([]byte, error) {
	return json.Marshal(Request{Type: p.ResetType})
}

// EncodeStep returns the wire encoding of a step request
func (p Protocol) EncodeStep(code int) ([]byte, error) {
	return json.Marshal(Request{Type: p.StepType, Action: &code})
}

// DecodeRequest decodes a request. The request type must be one of the
// dialect's request types and step requests must carry an action.
func (p Protocol) DecodeRequest(data []byte) (Request, error) {
	var r Request
	if err := json.Unmarshal(data, &r); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	switch r.Type {
	case p.ResetType:
		r.Action = nil
	case p.StepType:
		if r.Action == nil {
			return Request{}, fmt.Errorf("%w: step request without action",
				ErrMalformedRequest)
		}
	default:
		return Request{}, fmt.Errorf("%w: unknown request type %q",
			ErrMalformedRequest, r.Type)
	}
	return r, nil
}

// IsReset returns whether r is a reset request in dialect p
func (p Protocol) IsReset(r Request) bool {
	return r.Type == p.ResetType
}

// State is the lander state carried by a reply
type State struct {
	X       float64 `json:"mX"`
	Y       float64 `json:"mY"`
	DX      float64 `json:"mDX"`
	DY      float64 `json:"mDY"`
	Heading float64 `json:"mHeading"`
	OnGoal  bool    `json:"mOnGoal"`
}

// Vector returns the observation vector of the state in the order
// mX, mY, mDX, mDY, mHeading, mOnGoal
func (s State) Vector() *mat.VecDense {
	var onGoal float64
	if s.OnGoal {
		onGoal = 1
	}
	return mat.NewVecDense(Features, []float64{
		s.X, s.Y, s.DX, s.DY, s.Heading, onGoal,
	})
}

// Reply is an inbound observation reply
type Reply struct {
	State  State
	Reward float64
	Done   bool
}

// flag decodes either a JSON boolean or a JSON number, non-zero being
// true
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flag(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("mOnGoal must be a boolean or number")
	}
	*f = n != 0
	return nil
}

type wireState struct {
	X       *float64 `json:"mX"`
	Y       *float64 `json:"mY"`
	DX      *float64 `json:"mDX"`
	DY      *float64 `json:"mDY"`
	Heading *float64 `json:"mHeading"`
	OnGoal  *flag    `json:"mOnGoal"`
}

type wireReply struct {
	Type        *string    `json:"type"`
	State       *wireState `json:"state"`
	Observation *wireState `json:"observation"`
	Reward      *float64   `json:"reward"`
	Done        *bool      `json:"done"`
}

// DecodeReply strictly decodes a reply: the reward, the done flag and
// all six state fields must be present and well typed. Unknown keys are
// ignored. The state may be sent under "state" or "observation", and a
// "type" field, if present, must be the dialect's reply type.
func (p Protocol) DecodeReply(data []byte) (Reply, error) {
	var w wireReply
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&w); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	if w.Type != nil && p.ReplyType != "" && *w.Type != p.ReplyType {
		return Reply{}, fmt.Errorf("%w: unexpected message type %q",
			ErrMalformedReply, *w.Type)
	}

	state := w.State
	if state == nil {
		state = w.Observation
	}
	if state == nil {
		return Reply{}, missing("state")
	}
	if w.Reward == nil {
		return Reply{}, missing("reward")
	}
	if w.Done == nil {
		return Reply{}, missing("done")
	}

	fields := []struct {
		name  string
		value *float64
	}{
		{"mX", state.X},
		{"mY", state.Y},
		{"mDX", state.DX},
		{"mDY", state.DY},
		{"mHeading", state.Heading},
	}
	for _, f := range fields {
		if f.value == nil {
			return Reply{}, missing(f.name)
		}
	}
	if state.OnGoal == nil {
		return Reply{}, missing("mOnGoal")
	}

	return Reply{
		State: State{
			X:       *state.X,
			Y:       *state.Y,
			DX:      *state.DX,
			DY:      *state.DY,
			Heading: *state.Heading,
			OnGoal:  bool(*state.OnGoal),
		},
		Reward: *w.Reward,
		Done:   *w.Done,
	}, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing field %q", ErrMalformedReply, field)
}

// EncodeReply returns the wire encoding of a reply
func (p Protocol) EncodeReply(r Reply) ([]byte, error) {
	out := struct {
		Type   string  `json:"type,omitempty"`
		State  State   `json:"state"`
		Reward float64 `json:"reward"`
		Done   bool    `json:"done"`
	}{
		Type:   p.ReplyType,
		State:  r.State,
		Reward: r.Reward,
		Done:   r.Done,
	}
	return json.Marshal(out)
}
