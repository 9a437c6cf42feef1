package state

import (
	"errors"
	"math/big"
	"testing"

	"birdswap/storage"
)

type record struct {
	Name  string
	Value *big.Int
}

func newTestManager(t *testing.T) (*Manager, *storage.MemDB) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewManager(db), db
}

func TestKVRoundTripAndDelete(t *testing.T) {
	mgr, _ := newTestManager(t)
	key := []byte("records/1")

	var out record
	ok, err := mgr.KVGet(key, &out)
	if err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := mgr.KVPut(key, record{Name: "alpha", Value: big.NewInt(42)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err = mgr.KVGet(key, &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.Name != "alpha" || out.Value.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("unexpected record: %+v", out)
	}

	if err := mgr.KVDelete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, err = mgr.KVGet(key, nil)
	if err != nil || ok {
		t.Fatalf("expected deleted key, ok=%v err=%v", ok, err)
	}
	if _, err := mgr.KVGet(nil, nil); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestRevertToSnapshotRestoresOverlay(t *testing.T) {
	mgr, _ := newTestManager(t)
	if err := mgr.KVPut([]byte("a"), uint64(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	snap := mgr.Snapshot()
	if err := mgr.KVPut([]byte("a"), uint64(2)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mgr.KVPut([]byte("b"), uint64(3)); err != nil {
		t.Fatalf("put: %v", err)
	}
	inner := mgr.Snapshot()
	if err := mgr.KVDelete([]byte("a")); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mgr.RevertToSnapshot(inner)
	var got uint64
	if ok, _ := mgr.KVGet([]byte("a"), &got); !ok || got != 2 {
		t.Fatalf("inner revert: expected a=2, got ok=%v val=%d", ok, got)
	}

	mgr.RevertToSnapshot(snap)
	if ok, _ := mgr.KVGet([]byte("a"), &got); !ok || got != 1 {
		t.Fatalf("outer revert: expected committed a=1, got ok=%v val=%d", ok, got)
	}
	if ok, _ := mgr.KVGet([]byte("b"), nil); ok {
		t.Fatalf("expected b to be reverted")
	}
	if mgr.Pending() != 0 {
		t.Fatalf("expected empty overlay, got %d pending", mgr.Pending())
	}
}

func TestCommitPersistsAndDiscardDrops(t *testing.T) {
	mgr, db := newTestManager(t)
	if err := mgr.KVPut([]byte("kept"), uint64(7)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := db.Get(kvKey([]byte("kept"))); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected uncommitted write to stay out of db, got %v", err)
	}
	if err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reopened := NewManager(db)
	var got uint64
	if ok, err := reopened.KVGet([]byte("kept"), &got); err != nil || !ok || got != 7 {
		t.Fatalf("expected persisted value, ok=%v err=%v got=%d", ok, err, got)
	}

	if err := mgr.KVPut([]byte("dropped"), uint64(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mgr.KVDelete([]byte("kept")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	mgr.Discard()
	if ok, _ := mgr.KVGet([]byte("dropped"), nil); ok {
		t.Fatalf("expected discarded write to vanish")
	}
	if ok, _ := mgr.KVGet([]byte("kept"), nil); !ok {
		t.Fatalf("expected discarded delete to vanish")
	}
}

func TestCommitDeletesFromDatabase(t *testing.T) {
	mgr, db := newTestManager(t)
	if err := mgr.KVPut([]byte("x"), uint64(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mgr.KVDelete([]byte("x")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := db.Get(kvKey([]byte("x"))); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected key removed from db, got %v", err)
	}
}
