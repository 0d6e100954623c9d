package solver

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalJSON(t *testing.T) {
	tests := []struct {
		in       string
		wantType Type
		wantErr  bool
	}{
		{`{"Type":"Adam"}`, Adam, false},
		{`{"Type":"Adam","Config":{"StepSize":0.001}}`, Adam, false},
		{`{"Type":"Vanilla","Config":{"StepSize":0.1}}`, Vanilla, false},
		{`{"Type":"RMSProp"}`, RMSProp, false},
		{`{"Type":"Vanilla"}`, "", true},
		{`{"Type":"Momentum"}`, "", true},
		{`{"Type":"Adam","Config":{"Beta1":1.5}}`, "", true},
	}

	for _, test := range tests {
		var s Solver
		err := json.Unmarshal([]byte(test.in), &s)
		if test.wantErr {
			if err == nil {
				t.Errorf("%v: expected error", test.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v: %v", test.in, err)
			continue
		}
		if s.Type() != test.wantType {
			t.Errorf("%v: want type(%v) have(%v)", test.in, test.wantType,
				s.Type())
		}
		if s.Solver == nil {
			t.Errorf("%v: gorgonia solver not created", test.in)
		}
	}
}

func TestAdamDefaults(t *testing.T) {
	var s Solver
	if err := json.Unmarshal([]byte(`{"Type":"Adam"}`), &s); err != nil {
		t.Fatal(err)
	}
	c := s.Config.(AdamConfig)
	if c.StepSize != 5e-5 {
		t.Errorf("default step size: want(5e-5) have(%v)", c.StepSize)
	}

	out, err := json.Marshal(&s)
	if err != nil {
		t.Fatal(err)
	}
	var back Solver
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back.Config.(AdamConfig) != c {
		t.Errorf("marshalled config changed: want(%+v) have(%+v)", c,
			back.Config)
	}
}
