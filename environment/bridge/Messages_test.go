package bridge

import (
	"errors"
	"testing"
)

func TestDecodeReply(t *testing.T) {
	p := DefaultProtocol()

	tests := []struct {
		name    string
		in      string
		wantErr bool
		want    Reply
	}{
		{
			name: "state",
			in: `{"state":{"mX":1.5,"mY":2,"mDX":-3,"mDY":4,"mHeading":359,` +
				`"mOnGoal":true},"reward":1,"done":true}`,
			want: Reply{State: State{1.5, 2, -3, 4, 359, true}, Reward: 1,
				Done: true},
		},
		{
			name: "observation alias with extra keys",
			in: `{"type":"OBSERVATION_RESPONSE","observation":{"mX":0,` +
				`"mY":0,"mDX":0,"mDY":0,"mHeading":0,"mOnGoal":0,` +
				`"mFuel":60,"mGoalX":100},"reward":0,"done":false}`,
			want: Reply{},
		},
		{
			name: "numeric on goal",
			in: `{"state":{"mX":0,"mY":0,"mDX":0,"mDY":0,"mHeading":0,` +
				`"mOnGoal":1},"reward":0,"done":false}`,
			want: Reply{State: State{OnGoal: true}},
		},
		{
			name: "missing reward",
			in: `{"state":{"mX":0,"mY":0,"mDX":0,"mDY":0,"mHeading":0,` +
				`"mOnGoal":1},"done":false}`,
			wantErr: true,
		},
		{
			name: "missing done",
			in: `{"state":{"mX":0,"mY":0,"mDX":0,"mDY":0,"mHeading":0,` +
				`"mOnGoal":1},"reward":0}`,
			wantErr: true,
		},
		{
			name:    "missing state field",
			in:      `{"state":{"mX":0,"mY":0,"mDX":0,"mDY":0,"mOnGoal":1},"reward":0,"done":false}`,
			wantErr: true,
		},
		{
			name:    "missing state",
			in:      `{"reward":0,"done":false}`,
			wantErr: true,
		},
		{
			name: "mistyped reward",
			in: `{"state":{"mX":0,"mY":0,"mDX":0,"mDY":0,"mHeading":0,` +
				`"mOnGoal":1},"reward":"1","done":false}`,
			wantErr: true,
		},
		{
			name: "wrong type",
			in: `{"type":"STEP_REQUEST","state":{"mX":0,"mY":0,"mDX":0,` +
				`"mDY":0,"mHeading":0,"mOnGoal":1},"reward":0,"done":false}`,
			wantErr: true,
		},
		{
			name:    "not json",
			in:      `Message from LunarLanderAI`,
			wantErr: true,
		},
	}

	for _, test := range tests {
		reply, err := p.DecodeReply([]byte(test.in))
		if test.wantErr {
			if !errors.Is(err, ErrMalformedReply) {
				t.Errorf("%v: want ErrMalformedReply have %v", test.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v: %v", test.name, err)
			continue
		}
		if reply != test.want {
			t.Errorf("%v: want %+v have %+v", test.name, test.want, reply)
		}
	}
}

func TestReplyRoundTrip(t *testing.T) {
	p := AndroidProtocol()
	want := Reply{State: State{1, 2, 3, 4, 5, true}, Reward: 1, Done: true}

	data, err := p.EncodeReply(want)
	if err != nil {
		t.Fatal(err)
	}
	have, err := p.DecodeReply(data)
	if err != nil {
		t.Fatal(err)
	}
	if have != want {
		t.Errorf("want %+v have %+v", want, have)
	}
}

func TestDecodeRequest(t *testing.T) {
	p := DefaultProtocol()

	reset, err := p.DecodeRequest([]byte(`{"type":"reset"}`))
	if err != nil || !p.IsReset(reset) {
		t.Errorf("reset: %+v %v", reset, err)
	}

	step, err := p.DecodeRequest([]byte(`{"type":"step","action":21}`))
	if err != nil || p.IsReset(step) || *step.Action != 21 {
		t.Errorf("step: %+v %v", step, err)
	}

	bad := []string{
		`{"type":"step"}`,
		`{"type":"STEP_REQUEST","action":1}`,
		`{`,
	}
	for _, in := range bad {
		if _, err := p.DecodeRequest([]byte(in)); !errors.Is(err,
			ErrMalformedRequest) {
			t.Errorf("%v: want ErrMalformedRequest have %v", in, err)
		}
	}
}
