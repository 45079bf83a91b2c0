package wire

import (
	"encoding/json"
	"testing"
)

func TestBoolUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  Bool
	}{
		{`0`, false},
		{`1`, true},
		{`2`, true},
		{`-1`, true},
		{`0.0`, false},
		{`0.5`, true},
		{`"1"`, false},
		{`true`, false},
		{`null`, false},
		{`{}`, false},
		{`[]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var v struct {
				State Bool `json:"state"`
			}
			err := json.Unmarshal([]byte(`{"state":`+tt.input+`}`), &v)
			if err != nil {
				t.Fatalf("Unmarshal(%s) returned error: %v", tt.input, err)
			}
			if v.State != tt.want {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, v.State, tt.want)
			}
		})
	}
}

func TestBoolMarshal(t *testing.T) {
	tests := []struct {
		value Bool
		want  string
	}{
		{true, `{"state":1}`},
		{false, `{"state":0}`},
	}

	for _, tt := range tests {
		got, err := json.Marshal(struct {
			State Bool `json:"state"`
		}{tt.value})
		if err != nil {
			t.Fatalf("Marshal(%v) failed: %v", tt.value, err)
		}
		if string(got) != tt.want {
			t.Errorf("Marshal(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		raw       string
		wantValue bool
		wantOK    bool
	}{
		{`0`, false, true},
		{`7`, true, true},
		{` -1 `, true, true},
		{`"on"`, false, false},
		{`false`, false, false},
		{``, false, false},
	}

	for _, tt := range tests {
		value, ok := ParseBool(json.RawMessage(tt.raw))
		if value != tt.wantValue || ok != tt.wantOK {
			t.Errorf("ParseBool(%q) = (%v, %v), want (%v, %v)", tt.raw, value, ok, tt.wantValue, tt.wantOK)
		}
	}
}
