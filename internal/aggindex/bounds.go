package aggindex

// Bound is one end of a key range.
type Bound struct {
	Key       Key
	Inclusive bool
}

// Bounds selects a contiguous key range for Count and Sum. Either endpoint
// may be nil (unbounded). Prefix is an alternative form for composite keys:
// it matches every key whose leading elements equal the prefix, regardless of
// the remaining elements. When Prefix is set, Lower and Upper are ignored.
type Bounds struct {
	Lower  *Bound
	Upper  *Bound
	Prefix Key
}

// Unbounded matches every key in the namespace.
func Unbounded() Bounds {
	return Bounds{}
}

// Range builds inclusive/exclusive bounds from optional endpoints.
func Range(lower, upper *Bound) Bounds {
	return Bounds{Lower: lower, Upper: upper}
}

// Prefix builds prefix bounds from the given leading elements.
func Prefix(elems ...Elem) Bounds {
	return Bounds{Prefix: Key(elems)}
}

// Incl builds an inclusive bound endpoint.
func Incl(elems ...Elem) *Bound {
	return &Bound{Key: Key(elems), Inclusive: true}
}

// Excl builds an exclusive bound endpoint.
func Excl(elems ...Elem) *Bound {
	return &Bound{Key: Key(elems)}
}

// below reports whether k falls below the selected range.
func (b Bounds) below(k Key) bool {
	if b.Prefix != nil {
		return k.ComparePrefix(b.Prefix) < 0
	}
	if b.Lower == nil {
		return false
	}
	c := k.Compare(b.Lower.Key)
	if c != 0 {
		return c < 0
	}
	return !b.Lower.Inclusive
}

// above reports whether k falls above the selected range.
func (b Bounds) above(k Key) bool {
	if b.Prefix != nil {
		return k.ComparePrefix(b.Prefix) > 0
	}
	if b.Upper == nil {
		return false
	}
	c := k.Compare(b.Upper.Key)
	if c != 0 {
		return c > 0
	}
	return !b.Upper.Inclusive
}

// Contains reports whether k falls inside the selected range.
func (b Bounds) Contains(k Key) bool {
	return !b.below(k) && !b.above(k)
}
