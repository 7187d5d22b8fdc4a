package ikey

import "github.com/samber/mo"

// A Range selects keys between two optional bounds. Zero value (or All)
// matches every key.
type Range struct {
	Lower     mo.Option[Key]
	Upper     mo.Option[Key]
	LowerOpen bool
	UpperOpen bool
}

func All() Range {
	return Range{}
}

// Only matches exactly one key.
func Only(k Key) Range {
	return Range{Lower: mo.Some(k), Upper: mo.Some(k)}
}

func LowerBound(k Key, open bool) Range {
	return Range{Lower: mo.Some(k), LowerOpen: open}
}

func UpperBound(k Key, open bool) Range {
	return Range{Upper: mo.Some(k), UpperOpen: open}
}

func Bound(lower, upper Key, lowerOpen, upperOpen bool) Range {
	return Range{
		Lower:     mo.Some(lower),
		Upper:     mo.Some(upper),
		LowerOpen: lowerOpen,
		UpperOpen: upperOpen,
	}
}

func (r Range) Contains(k Key) bool {
	if lower, ok := r.Lower.Get(); ok {
		c := k.Compare(lower)
		if c < 0 || (c == 0 && r.LowerOpen) {
			return false
		}
	}
	if upper, ok := r.Upper.Get(); ok {
		c := k.Compare(upper)
		if c > 0 || (c == 0 && r.UpperOpen) {
			return false
		}
	}
	return true
}
