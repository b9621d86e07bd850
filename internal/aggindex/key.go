// Package aggindex provides a namespaced order-statistics index: a sorted
// tree per namespace in which every subtree caches its (count, sum), so
// range count and sum queries cost O(log n) instead of a scan.
//
// Keys are short tuples of string and integer elements compared
// lexicographically, which supports both scalar keys (a timestamp) and
// composite keys ([status, timestamp]). Duplicate keys are allowed; a leaf is
// identified by (namespace, key, document id).
package aggindex

import (
	"fmt"
	"strings"
	"time"
)

type elemKind uint8

const (
	kindInt elemKind = iota
	kindString
)

// Elem is one element of a key tuple.
type Elem struct {
	kind elemKind
	str  string
	num  int64
}

// Int builds an integer key element.
func Int(v int64) Elem {
	return Elem{kind: kindInt, num: v}
}

// String builds a string key element.
func String(v string) Elem {
	return Elem{kind: kindString, str: v}
}

// Time builds a key element from a timestamp, at millisecond precision.
func Time(t time.Time) Elem {
	return Elem{kind: kindInt, num: t.UnixMilli()}
}

// Compare orders elements: integers before strings, then by value.
func (e Elem) Compare(o Elem) int {
	if e.kind != o.kind {
		if e.kind < o.kind {
			return -1
		}
		return 1
	}
	switch e.kind {
	case kindInt:
		switch {
		case e.num < o.num:
			return -1
		case e.num > o.num:
			return 1
		}
		return 0
	default:
		return strings.Compare(e.str, o.str)
	}
}

func (e Elem) String() string {
	if e.kind == kindInt {
		return fmt.Sprintf("%d", e.num)
	}
	return e.str
}

// Key is a tuple of elements ordered lexicographically. A shorter key that is
// a prefix of a longer one sorts first.
type Key []Elem

// Compare orders keys lexicographically element by element, with length as
// the final tiebreak.
func (k Key) Compare(o Key) int {
	n := len(k)
	if len(o) < n {
		n = len(o)
	}
	for i := range n {
		if c := k[i].Compare(o[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k) < len(o):
		return -1
	case len(k) > len(o):
		return 1
	}
	return 0
}

// Equal reports whether two keys compare equal.
func (k Key) Equal(o Key) bool {
	return k.Compare(o) == 0
}

// ComparePrefix compares only the first len(p) elements of k against p.
// A key shorter than p compares by its available elements, then sorts below.
func (k Key) ComparePrefix(p Key) int {
	n := len(p)
	if len(k) < n {
		n = len(k)
	}
	for i := range n {
		if c := k[i].Compare(p[i]); c != 0 {
			return c
		}
	}
	if len(k) < len(p) {
		return -1
	}
	return 0
}

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, e := range k {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}
