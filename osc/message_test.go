package osc

import (
	"reflect"
	"testing"
)

func TestMessage_Append(t *testing.T) {
	message := NewMessage("/address")

	if err := message.Append("string argument", int32(123456789), true); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if len(message.Arguments) != 3 {
		t.Errorf("Number of arguments should be %d and is %d", 3, len(message.Arguments))
	}

	if err := message.Append(42); err == nil {
		t.Errorf("Append(int) should fail")
	}
	if len(message.Arguments) != 3 {
		t.Errorf("failed Append changed the arguments: %v", message.Arguments)
	}
}

func TestMessage_Match(t *testing.T) {
	tc := []struct {
		desc        string
		addr        string
		addrPattern string
		want        bool
	}{
		{"exact", "/n_go", "/n_go", true},
		{"don't match", "/a/b", "/a", false},
		{"match alternatives", "/a/{foo,bar}", "/a/foo", true},
		{"don't match if address is not part of the alternatives", "/a/{foo,bar}", "/a/bob", false},
		{"wildcard in part", "/n_*", "/n_end", true},
	}

	for _, tt := range tc {
		msg := NewMessage(tt.addr)

		got := msg.Match(tt.addrPattern)
		if got != tt.want {
			t.Errorf("%s: msg.Match('%s') = '%t', want = '%t'", tt.desc, tt.addrPattern, got, tt.want)
		}
	}
}

func TestMessage_TypedArguments(t *testing.T) {
	msg := NewMessage("/n_go", int32(1001), "name")

	if v, err := msg.Int32Arg(0); err != nil || v != 1001 {
		t.Errorf("Int32Arg(0) = %d, %v", v, err)
	}
	if _, err := msg.Int32Arg(1); err == nil {
		t.Errorf("Int32Arg(1) should fail for a string")
	}
	if _, err := msg.Int32Arg(2); err == nil {
		t.Errorf("Int32Arg(2) should fail when missing")
	}
	if v, err := msg.StringArg(1); err != nil || v != "name" {
		t.Errorf("StringArg(1) = %q, %v", v, err)
	}
}

func TestMessage_String(t *testing.T) {
	msg := NewMessage("/s_new", "sine", int32(1001), float32(0.5), nil)
	if got, want := msg.String(), "/s_new ,sifN sine 1001 0.5 Nil"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMessage_MarshalBinary(t *testing.T) {
	for _, tt := range messageTestCases {
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

func TestMessage_UnmarshalBinary(t *testing.T) {
	for _, tt := range messageTestCases {
		t.Run(tt.name, func(t *testing.T) {
			m := new(Message)
			if err := m.UnmarshalBinary(tt.raw); (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalBinary() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(m, tt.obj) {
				t.Errorf("UnmarshalBinary() got = %v, want %v", m, tt.obj)
			}
		})
	}
}

func TestMessage_UnmarshalBinary_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"abcd",
		"/a" + nulls(1),
		"/a" + nulls(2) + ",i" + nulls(2),
		"/a" + nulls(2) + ",x" + nulls(2),
		"/a" + nulls(2) + ",b" + nulls(2) + "\x00\x00\x00\x09",
	} {
		if _, err := NewMessageFromData([]byte(raw)); err == nil {
			t.Errorf("NewMessageFromData(%q) should fail", raw)
		}
	}
}

var result interface{}

func BenchmarkMessageMarshalBinary(b *testing.B) {
	msg := NewMessage("/s_new", "default", int32(1001), int32(0), int32(1), "freq", float32(440))
	var buf []byte
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		buf, _ = msg.MarshalBinary()
	}
	result = buf
}
