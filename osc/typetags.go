package osc

import (
	"github.com/pkg/errors"
)

type TypeTag rune

const (
	TypeString  TypeTag = 's'
	TypeInt32   TypeTag = 'i'
	TypeInt64   TypeTag = 'h'
	TypeFloat32 TypeTag = 'f'
	TypeFloat64 TypeTag = 'd'
	TypeBlob    TypeTag = 'b'
	TypeTimeTag TypeTag = 't'
	TypeNil     TypeTag = 'N'
	TypeTrue    TypeTag = 'T'
	TypeFalse   TypeTag = 'F'
	TypeInvalid TypeTag = 0
)

// ToTypeTag returns the OSC TypeTag for the given argument.
// Returns TypeInvalid if the argument type is unsupported.
func ToTypeTag(arg interface{}) TypeTag {
	switch t := arg.(type) {
	case bool:
		if t {
			return TypeTrue
		}
		return TypeFalse
	case nil:
		return TypeNil
	case int32:
		return TypeInt32
	case float32:
		return TypeFloat32
	case string:
		return TypeString
	case []byte:
		return TypeBlob
	case int64:
		return TypeInt64
	case float64:
		return TypeFloat64
	case Timetag:
		return TypeTimeTag
	default:
		return TypeInvalid
	}
}

// GetTypeTag returns the OSC type tag string for the given arguments,
// including the leading ','.
func GetTypeTag(args ...interface{}) (string, error) {
	tt := make([]byte, 0, len(args)+1)
	tt = append(tt, ',')
	for _, arg := range args {
		s := ToTypeTag(arg)
		if s == TypeInvalid {
			return "", errors.Errorf("GetTypeTag: unsupported type: %T", arg)
		}
		tt = append(tt, byte(s))
	}
	return string(tt), nil
}
