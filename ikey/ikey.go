// Package ikey models engine keys: numbers, strings, binary data and
// arrays of those, with the engine's total ordering
// (number < string < binary < array) and an order-preserving string
// encoding so ordered storage iterates keys in key order.
package ikey

import (
	"bytes"
	"math"

	"github.com/pkg/errors"
)

type Type uint8

const (
	TypeNumber Type = iota + 1
	TypeString
	TypeBinary
	TypeArray
)

// encoding tag bytes, ordered the same way key types are
const (
	tagNumber byte = 0x10
	tagString byte = 0x20
	tagBinary byte = 0x30
	tagArray  byte = 0x40
)

// A Key is one engine key. Zero value means "no key".
type Key struct {
	typ Type
	num float64
	str string
	bin []byte
	arr []Key
}

func Num[N ~int | ~int64 | ~float64](n N) Key {
	return Key{typ: TypeNumber, num: float64(n)}
}

func Str[S ~string](s S) Key {
	return Key{typ: TypeString, str: string(s)}
}

func Bin(b []byte) Key {
	return Key{typ: TypeBinary, bin: b}
}

func List(elems ...Key) Key {
	return Key{typ: TypeArray, arr: elems}
}

func (k Key) Type() Type   { return k.typ }
func (k Key) IsZero() bool { return k.typ == 0 }

// FromValue converts a decoded record value into a Key.
// Everything a bson round-trip may produce for a key field is accepted.
func FromValue(v any) (Key, error) {
	switch t := v.(type) {
	case int:
		return Num(t), nil
	case int32:
		return Num(int(t)), nil
	case int64:
		return Num(t), nil
	case uint64:
		return Num(float64(t)), nil
	case float32:
		return Num(float64(t)), nil
	case float64:
		return Num(t), nil
	case string:
		return Str(t), nil
	case []byte:
		return Bin(t), nil
	case []any:
		elems := make([]Key, 0, len(t))
		for _, e := range t {
			k, err := FromValue(e)
			if err != nil {
				return Key{}, err
			}
			elems = append(elems, k)
		}
		return List(elems...), nil
	default:
		return Key{}, errors.Errorf("value of type %T is not a valid key", v)
	}
}

// Value converts the key back to a plain value, the inverse of FromValue.
func (k Key) Value() any {
	switch k.typ {
	case TypeNumber:
		if k.num == math.Trunc(k.num) && math.Abs(k.num) < 1<<53 {
			return int64(k.num)
		}
		return k.num
	case TypeString:
		return k.str
	case TypeBinary:
		return k.bin
	case TypeArray:
		out := make([]any, len(k.arr))
		for i, e := range k.arr {
			out[i] = e.Value()
		}
		return out
	default:
		return nil
	}
}

// Compare orders keys: by type first (number < string < binary < array),
// then by value; arrays element-wise with the shorter prefix ordered first.
func (k Key) Compare(o Key) int {
	if k.typ != o.typ {
		if k.typ < o.typ {
			return -1
		}
		return 1
	}

	switch k.typ {
	case TypeNumber:
		switch {
		case k.num < o.num:
			return -1
		case k.num > o.num:
			return 1
		}
		return 0
	case TypeString:
		switch {
		case k.str < o.str:
			return -1
		case k.str > o.str:
			return 1
		}
		return 0
	case TypeBinary:
		return bytes.Compare(k.bin, o.bin)
	case TypeArray:
		for i := 0; i < len(k.arr) && i < len(o.arr); i++ {
			if c := k.arr[i].Compare(o.arr[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(k.arr) < len(o.arr):
			return -1
		case len(k.arr) > len(o.arr):
			return 1
		}
		return 0
	}
	return 0
}

func (k Key) Equal(o Key) bool {
	return k.Compare(o) == 0
}

// Encode produces an order-preserving string: for any keys a, b
// a.Compare(b) < 0 iff a.Encode() < b.Encode() bytewise. Used as the
// storage key so ordered backends iterate in key order.
func (k Key) Encode() string {
	var buf bytes.Buffer
	k.encode(&buf)
	return buf.String()
}

func (k Key) encode(buf *bytes.Buffer) {
	switch k.typ {
	case TypeNumber:
		buf.WriteByte(tagNumber)
		bits := math.Float64bits(k.num)
		// flip so that the bit pattern orders like the float does
		if bits&(1<<63) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		var raw [8]byte
		for i := 0; i < 8; i++ {
			raw[i] = byte(bits >> (56 - 8*i))
		}
		buf.Write(raw[:])
	case TypeString:
		buf.WriteByte(tagString)
		escape(buf, []byte(k.str))
	case TypeBinary:
		buf.WriteByte(tagBinary)
		escape(buf, k.bin)
	case TypeArray:
		buf.WriteByte(tagArray)
		for _, e := range k.arr {
			e.encode(buf)
		}
		// terminator sorts before any element tag, so a prefix
		// array encodes smaller than a longer one
		buf.WriteByte(0x00)
	}
}

// 0x00 escapes to 0x00 0x01, terminator is 0x00 0x00
func escape(buf *bytes.Buffer, b []byte) {
	for _, c := range b {
		if c == 0x00 {
			buf.WriteByte(0x00)
			buf.WriteByte(0x01)
			continue
		}
		buf.WriteByte(c)
	}
	buf.WriteByte(0x00)
	buf.WriteByte(0x00)
}
