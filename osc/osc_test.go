package osc

import "strings"

const zero = string(byte(0))

// nulls returns a string of `i` nulls.
func nulls(i int) string {
	return strings.Repeat(zero, i)
}

type testCase struct {
	name    string
	obj     Packet
	raw     []byte
	wantErr bool
}

var messageTestCases = []testCase{
	{
		name: "no_arguments",
		obj:  NewMessage("/a"),
		raw:  []byte("/a" + nulls(2) + "," + nulls(3)),
	},
	{
		name: "n_go",
		obj:  NewMessage("/n_go", int32(1001), int32(1), int32(-1), int32(-1), int32(0)),
		raw: []byte("/n_go" + nulls(3) + ",iiiii" + nulls(2) +
			"\x00\x00\x03\xe9" + "\x00\x00\x00\x01" + "\xff\xff\xff\xff" + "\xff\xff\xff\xff" + "\x00\x00\x00\x00"),
	},
	{
		name: "string",
		obj:  NewMessage("/s", "hi"),
		raw:  []byte("/s" + nulls(2) + ",s" + nulls(2) + "hi" + nulls(2)),
	},
	{
		name: "float32",
		obj:  NewMessage("/f", float32(1)),
		raw:  []byte("/f" + nulls(2) + ",f" + nulls(2) + "\x3f\x80\x00\x00"),
	},
	{
		name: "bools_and_nil",
		obj:  NewMessage("/tfn", true, false, nil),
		raw:  []byte("/tfn" + nulls(4) + ",TFN" + nulls(4)),
	},
	{
		name: "blob",
		obj:  NewMessage("/b", []byte{1, 2, 3}),
		raw:  []byte("/b" + nulls(2) + ",b" + nulls(2) + "\x00\x00\x00\x03" + "\x01\x02\x03\x00"),
	},
	{
		name: "int64_and_timetag",
		obj:  NewMessage("/ht", int64(-2), Timetag(1)),
		raw: []byte("/ht" + nulls(1) + ",ht" + nulls(1) +
			"\xff\xff\xff\xff\xff\xff\xff\xfe" + "\x00\x00\x00\x00\x00\x00\x00\x01"),
	},
}

var bundleTestCases = []testCase{
	{
		name: "empty",
		obj:  &Bundle{Timetag: 1},
		raw:  []byte("#bundle" + nulls(1) + "\x00\x00\x00\x00\x00\x00\x00\x01"),
	},
	{
		name: "one_message",
		obj:  &Bundle{Timetag: 1, Elements: []Packet{NewMessage("/a")}},
		raw: []byte("#bundle" + nulls(1) + "\x00\x00\x00\x00\x00\x00\x00\x01" +
			"\x00\x00\x00\x08" + "/a" + nulls(2) + "," + nulls(3)),
	},
	{
		name: "nested",
		obj: &Bundle{Timetag: 1, Elements: []Packet{
			&Bundle{Timetag: 2, Elements: []Packet{NewMessage("/a")}},
		}},
		raw: []byte("#bundle" + nulls(1) + "\x00\x00\x00\x00\x00\x00\x00\x01" +
			"\x00\x00\x00\x1c" +
			"#bundle" + nulls(1) + "\x00\x00\x00\x00\x00\x00\x00\x02" +
			"\x00\x00\x00\x08" + "/a" + nulls(2) + "," + nulls(3)),
	},
}
