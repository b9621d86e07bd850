package aggindex

import (
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDoc is a stand-in for an entity record with a composite
// [status, timestamp] key and a monetary value.
type testDoc struct {
	id     uuid.UUID
	org    uuid.UUID
	status string
	ts     int64
	total  int64
}

func newTestIndex(t *testing.T) *Index[testDoc] {
	t.Helper()
	ix, err := New(Definition[testDoc]{
		Name:      "test_totals",
		Namespace: func(d testDoc) uuid.UUID { return d.org },
		Key:       func(d testDoc) Key { return Key{String(d.status), Int(d.ts)} },
		ID:        func(d testDoc) uuid.UUID { return d.id },
		Value:     func(d testDoc) int64 { return d.total },
	})
	require.NoError(t, err)
	return ix
}

func TestNewRequiresExtractors(t *testing.T) {
	_, err := New(Definition[testDoc]{Name: "broken"})
	require.Error(t, err)
}

func TestInsertDeleteCount(t *testing.T) {
	ix := newTestIndex(t)
	org := uuid.Must(uuid.NewV7())

	doc := testDoc{id: uuid.Must(uuid.NewV7()), org: org, status: "sent", ts: 100, total: 2500}
	require.NoError(t, ix.Insert(doc))

	assert.Equal(t, int64(1), ix.Count(org, Unbounded()))
	assert.Equal(t, int64(2500), ix.Sum(org, Unbounded()))

	require.NoError(t, ix.Delete(doc))
	assert.Equal(t, int64(0), ix.Count(org, Unbounded()))
	assert.Equal(t, int64(0), ix.Sum(org, Unbounded()))
}

func TestInsertDuplicateLeafFails(t *testing.T) {
	ix := newTestIndex(t)
	doc := testDoc{id: uuid.Must(uuid.NewV7()), org: uuid.Must(uuid.NewV7()), status: "draft", ts: 1}

	require.NoError(t, ix.Insert(doc))
	err := ix.Insert(doc)
	require.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestDeleteMissingLeafFails(t *testing.T) {
	ix := newTestIndex(t)
	doc := testDoc{id: uuid.Must(uuid.NewV7()), org: uuid.Must(uuid.NewV7()), status: "draft", ts: 1}

	err := ix.Delete(doc)
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestDuplicateKeysDistinctDocs(t *testing.T) {
	ix := newTestIndex(t)
	org := uuid.Must(uuid.NewV7())

	// Same (status, ts) key for all three; the doc id disambiguates.
	for range 3 {
		doc := testDoc{id: uuid.Must(uuid.NewV7()), org: org, status: "sent", ts: 42, total: 100}
		require.NoError(t, ix.Insert(doc))
	}

	assert.Equal(t, int64(3), ix.Count(org, Prefix(String("sent"))))
	assert.Equal(t, int64(300), ix.Sum(org, Prefix(String("sent"))))
}

func TestReplaceNoOpWhenTripleUnchanged(t *testing.T) {
	ix := newTestIndex(t)
	org := uuid.Must(uuid.NewV7())

	doc := testDoc{id: uuid.Must(uuid.NewV7()), org: org, status: "sent", ts: 10, total: 500}
	require.NoError(t, ix.Insert(doc))

	before := ix.Count(org, Unbounded())
	beforeSum := ix.Sum(org, Unbounded())

	// Key, namespace, and value unchanged: Replace must not touch the tree,
	// even though the document itself was mutated.
	updated := doc
	require.NoError(t, ix.Replace(doc, updated))

	assert.Equal(t, before, ix.Count(org, Unbounded()))
	assert.Equal(t, beforeSum, ix.Sum(org, Unbounded()))
}

func TestReplaceMovesLeaf(t *testing.T) {
	ix := newTestIndex(t)
	org := uuid.Must(uuid.NewV7())

	doc := testDoc{id: uuid.Must(uuid.NewV7()), org: org, status: "draft", ts: 10, total: 500}
	require.NoError(t, ix.Insert(doc))

	sent := doc
	sent.status = "sent"
	require.NoError(t, ix.Replace(doc, sent))

	assert.Equal(t, int64(0), ix.Count(org, Prefix(String("draft"))))
	assert.Equal(t, int64(1), ix.Count(org, Prefix(String("sent"))))
	assert.Equal(t, int64(500), ix.Sum(org, Prefix(String("sent"))))
}

func TestReplaceMissingLeafFails(t *testing.T) {
	ix := newTestIndex(t)
	org := uuid.Must(uuid.NewV7())

	doc := testDoc{id: uuid.Must(uuid.NewV7()), org: org, status: "draft", ts: 10}
	moved := doc
	moved.status = "sent"

	err := ix.Replace(doc, moved)
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestReplaceCollisionRestoresOldLeaf(t *testing.T) {
	ix := newTestIndex(t)
	org := uuid.Must(uuid.NewV7())

	doc := testDoc{id: uuid.Must(uuid.NewV7()), org: org, status: "draft", ts: 10, total: 500}
	require.NoError(t, ix.Insert(doc))

	// A second leaf already sits where the replacement would land.
	blocker := doc
	blocker.status = "sent"
	require.NoError(t, ix.Insert(blocker))

	err := ix.Replace(doc, blocker)
	require.ErrorIs(t, err, ErrDuplicateEntry)

	// The failed swap must leave both leaves in place.
	assert.Equal(t, int64(1), ix.Count(org, Prefix(String("draft"))))
	assert.Equal(t, int64(1), ix.Count(org, Prefix(String("sent"))))
	assert.Equal(t, int64(1000), ix.Sum(org, Unbounded()))
}

func TestNamespaceIsolation(t *testing.T) {
	ix := newTestIndex(t)
	orgA := uuid.Must(uuid.NewV7())
	orgB := uuid.Must(uuid.NewV7())

	require.NoError(t, ix.Insert(testDoc{id: uuid.Must(uuid.NewV7()), org: orgA, status: "sent", ts: 1, total: 100}))
	require.NoError(t, ix.Insert(testDoc{id: uuid.Must(uuid.NewV7()), org: orgB, status: "sent", ts: 1, total: 900}))

	assert.Equal(t, int64(1), ix.Count(orgA, Unbounded()))
	assert.Equal(t, int64(100), ix.Sum(orgA, Unbounded()))
	assert.Equal(t, int64(1), ix.Count(orgB, Unbounded()))
	assert.Equal(t, int64(900), ix.Sum(orgB, Unbounded()))
	assert.Equal(t, int64(0), ix.Count(uuid.Must(uuid.NewV7()), Unbounded()))
}

// TestAggregatesAgainstOracle drives a random sequence of inserts, deletes,
// and replaces, then checks Count and Sum for random bound combinations
// against a brute-force linear scan of the live documents.
func TestAggregatesAgainstOracle(t *testing.T) {
	ix := newTestIndex(t)
	rng := rand.New(rand.NewPCG(7, 11))

	orgs := []uuid.UUID{uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7())}
	statuses := []string{"draft", "sent", "approved", "declined"}

	live := make(map[uuid.UUID]testDoc)

	randomDoc := func() testDoc {
		return testDoc{
			id:     uuid.Must(uuid.NewV7()),
			org:    orgs[rng.IntN(len(orgs))],
			status: statuses[rng.IntN(len(statuses))],
			ts:     int64(rng.IntN(1000)),
			total:  int64(rng.IntN(10_000)),
		}
	}

	anyLive := func() (testDoc, bool) {
		for _, d := range live {
			return d, true
		}
		return testDoc{}, false
	}

	for range 2000 {
		switch op := rng.IntN(10); {
		case op < 6: // insert
			d := randomDoc()
			require.NoError(t, ix.Insert(d))
			live[d.id] = d
		case op < 8: // delete
			if d, ok := anyLive(); ok {
				require.NoError(t, ix.Delete(d))
				delete(live, d.id)
			}
		default: // replace with mutated key/value
			if d, ok := anyLive(); ok {
				mutated := d
				mutated.status = statuses[rng.IntN(len(statuses))]
				mutated.ts = int64(rng.IntN(1000))
				mutated.total = int64(rng.IntN(10_000))
				require.NoError(t, ix.Replace(d, mutated))
				live[d.id] = mutated
			}
		}
	}

	randomBounds := func() Bounds {
		switch rng.IntN(4) {
		case 0:
			return Unbounded()
		case 1:
			return Prefix(String(statuses[rng.IntN(len(statuses))]))
		default:
			lo := Key{String(statuses[rng.IntN(len(statuses))]), Int(int64(rng.IntN(1000)))}
			hi := Key{String(statuses[rng.IntN(len(statuses))]), Int(int64(rng.IntN(1000)))}
			lower := &Bound{Key: lo, Inclusive: rng.IntN(2) == 0}
			upper := &Bound{Key: hi, Inclusive: rng.IntN(2) == 0}
			return Range(lower, upper)
		}
	}

	key := func(d testDoc) Key { return Key{String(d.status), Int(d.ts)} }

	for range 200 {
		org := orgs[rng.IntN(len(orgs))]
		bounds := randomBounds()

		var wantCount, wantSum int64
		for _, d := range live {
			if d.org == org && bounds.Contains(key(d)) {
				wantCount++
				wantSum += d.total
			}
		}

		require.Equal(t, wantCount, ix.Count(org, bounds), "count mismatch for bounds %+v", bounds)
		require.Equal(t, wantSum, ix.Sum(org, bounds), "sum mismatch for bounds %+v", bounds)
	}

	// Unbounded count equals the number of live documents per namespace.
	for _, org := range orgs {
		var want int64
		for _, d := range live {
			if d.org == org {
				want++
			}
		}
		require.Equal(t, want, ix.Count(org, Unbounded()))
	}
}

func TestReset(t *testing.T) {
	ix := newTestIndex(t)
	org := uuid.Must(uuid.NewV7())

	require.NoError(t, ix.Insert(testDoc{id: uuid.Must(uuid.NewV7()), org: org, status: "sent", ts: 1, total: 10}))
	ix.Reset()
	assert.Equal(t, int64(0), ix.Count(org, Unbounded()))
}
