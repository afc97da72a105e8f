package osc

import (
	"reflect"
	"testing"
)

func TestBundle_MarshalBinary(t *testing.T) {
	for _, tt := range bundleTestCases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.obj.MarshalBinary()
			if (err != nil) != tt.wantErr {
				t.Errorf("MarshalBinary() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(got, tt.raw) {
				t.Errorf("MarshalBinary() got = %q, want %q", got, tt.raw)
			}
		})
	}
}

func TestBundle_UnmarshalBinary(t *testing.T) {
	for _, tt := range bundleTestCases {
		t.Run(tt.name, func(t *testing.T) {
			m := new(Bundle)
			if err := m.UnmarshalBinary(tt.raw); (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalBinary() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(m, tt.obj) {
				t.Errorf("UnmarshalBinary() got = %v, want %v", m, tt.obj)
			}
		})
	}
}

func TestBundle_Append(t *testing.T) {
	b := NewBundle(NewImmediateTimetag())
	if err := b.Append(NewMessage("/a")); err != nil {
		t.Errorf("Append(Message) error = %v", err)
	}
	if err := b.Append(NewBundle(NewImmediateTimetag())); err != nil {
		t.Errorf("Append(Bundle) error = %v", err)
	}
	if err := b.Append(Timetag(0)); err == nil {
		t.Errorf("Append(Timetag) should fail")
	}
	if len(b.Elements) != 2 {
		t.Errorf("len(Elements) = %d, want 2", len(b.Elements))
	}
}

func TestParsePacket(t *testing.T) {
	tests := []testCase{}
	tests = append(tests, messageTestCases...)
	tests = append(tests, bundleTestCases...)
	tests = append(tests, testCase{name: "garbage", raw: []byte("xyz" + nulls(1)), wantErr: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePacket(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePacket() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(got, tt.obj) {
				t.Errorf("ParsePacket() got = %v, want %v", got, tt.obj)
			}
		})
	}
}
