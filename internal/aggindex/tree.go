package aggindex

import (
	"bytes"
	"math/rand/v2"

	"github.com/google/uuid"
)

// The backing structure is a treap: a binary search tree ordered by
// (key, docID) with heap-ordered random priorities keeping it balanced in
// expectation. Each node caches the size and value sum of its subtree, so a
// range aggregate is answered by two boundary descents.

type node struct {
	key   Key
	docID uuid.UUID
	value int64
	prio  uint64

	left  *node
	right *node
	count int64 // subtree size including this node
	sum   int64 // subtree value sum including this node
}

func newNode(key Key, docID uuid.UUID, value int64) *node {
	return &node{key: key, docID: docID, value: value, prio: rand.Uint64(), count: 1, sum: value}
}

func subCount(n *node) int64 {
	if n == nil {
		return 0
	}
	return n.count
}

func subSum(n *node) int64 {
	if n == nil {
		return 0
	}
	return n.sum
}

func (n *node) recompute() {
	n.count = 1 + subCount(n.left) + subCount(n.right)
	n.sum = n.value + subSum(n.left) + subSum(n.right)
}

// compareLeaf orders leaves by key, then by document id so equal keys still
// have a total order.
func compareLeaf(aKey Key, aID uuid.UUID, bKey Key, bID uuid.UUID) int {
	if c := aKey.Compare(bKey); c != 0 {
		return c
	}
	return bytes.Compare(aID[:], bID[:])
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	n.recompute()
	l.recompute()
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	n.recompute()
	r.recompute()
	return r
}

// insert places nn into the subtree rooted at n. Returns the new subtree root
// and false if a leaf with the same (key, docID) already exists.
func insert(n, nn *node) (*node, bool) {
	if n == nil {
		return nn, true
	}
	c := compareLeaf(nn.key, nn.docID, n.key, n.docID)
	if c == 0 {
		return n, false
	}
	var ok bool
	if c < 0 {
		n.left, ok = insert(n.left, nn)
		if !ok {
			return n, false
		}
		if n.left.prio > n.prio {
			return rotateRight(n), true
		}
	} else {
		n.right, ok = insert(n.right, nn)
		if !ok {
			return n, false
		}
		if n.right.prio > n.prio {
			return rotateLeft(n), true
		}
	}
	n.recompute()
	return n, true
}

// merge joins two subtrees where every key in a precedes every key in b.
func merge(a, b *node) *node {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.prio > b.prio {
		a.right = merge(a.right, b)
		a.recompute()
		return a
	}
	b.left = merge(a, b.left)
	b.recompute()
	return b
}

// remove deletes the leaf identified by (key, docID). Returns the new subtree
// root and whether the leaf was found.
func remove(n *node, key Key, docID uuid.UUID) (*node, bool) {
	if n == nil {
		return nil, false
	}
	c := compareLeaf(key, docID, n.key, n.docID)
	if c == 0 {
		return merge(n.left, n.right), true
	}
	var ok bool
	if c < 0 {
		n.left, ok = remove(n.left, key, docID)
	} else {
		n.right, ok = remove(n.right, key, docID)
	}
	if ok {
		n.recompute()
	}
	return n, ok
}

// rangeAgg aggregates (count, sum) over the leaves whose keys fall inside b.
// It descends to the topmost in-range node, then walks the two boundaries of
// the range, taking whole cached subtrees in between.
func rangeAgg(n *node, b Bounds) (int64, int64) {
	for n != nil {
		switch {
		case b.below(n.key):
			n = n.right
		case b.above(n.key):
			n = n.left
		default:
			count, sum := int64(1), n.value
			lc, ls := aggAtLeast(n.left, b)
			count += lc
			sum += ls
			rc, rs := aggAtMost(n.right, b)
			count += rc
			sum += rs
			return count, sum
		}
	}
	return 0, 0
}

// aggAtLeast aggregates the leaves of n that are not below the range. Every
// key in n is known to be not above it.
func aggAtLeast(n *node, b Bounds) (int64, int64) {
	var count, sum int64
	for n != nil {
		if b.below(n.key) {
			n = n.right
			continue
		}
		count += 1 + subCount(n.right)
		sum += n.value + subSum(n.right)
		n = n.left
	}
	return count, sum
}

// aggAtMost aggregates the leaves of n that are not above the range. Every
// key in n is known to be not below it.
func aggAtMost(n *node, b Bounds) (int64, int64) {
	var count, sum int64
	for n != nil {
		if b.above(n.key) {
			n = n.left
			continue
		}
		count += 1 + subCount(n.left)
		sum += n.value + subSum(n.left)
		n = n.right
	}
	return count, sum
}
