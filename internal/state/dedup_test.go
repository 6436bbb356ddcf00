package state

import (
	"testing"
	"time"

	"github.com/user/crowquill/internal/types"
)

func TestDedupStoreEmptyLoad(t *testing.T) {
	store := NewFileDedupStore(t.TempDir(), "acct1")
	keys, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("expected empty set, got %d keys", len(keys))
	}
}

func TestDedupStoreSaveAndLoad(t *testing.T) {
	root := t.TempDir()
	store := NewFileDedupStore(root, "acct1")

	key := types.ActionKey(types.ActionReply, "acct1", "item9")
	if err := store.Save(key, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(types.ActionKey(types.ActionLike, "acct1", "item9"), time.Now()); err != nil {
		t.Fatal(err)
	}

	// Fresh store over the same file sees both keys.
	keys, err := NewFileDedupStore(root, "acct1").Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if _, ok := keys[key]; !ok {
		t.Errorf("expected key %q present", key)
	}
}

func TestDedupStoreAccountsIsolated(t *testing.T) {
	root := t.TempDir()
	a := NewFileDedupStore(root, "acct-a")
	b := NewFileDedupStore(root, "acct-b")

	if err := a.Save("reply_acct-a_1", time.Now()); err != nil {
		t.Fatal(err)
	}
	keys, err := b.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no cross-account keys, got %d", len(keys))
	}
}

func TestStyleStoreRoundTrip(t *testing.T) {
	store := NewFileStyleStore(t.TempDir())

	snapshot := &types.StyleSnapshot{
		Handle:   "alice",
		Tone:     "playful",
		Keywords: []string{"models", "launches"},
	}
	if err := store.Write("acct1", snapshot); err != nil {
		t.Fatal(err)
	}

	got, err := store.Read("acct1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Handle != "alice" || got.Tone != "playful" {
		t.Errorf("unexpected snapshot %+v", got)
	}
}

func TestStyleStoreMissingSnapshot(t *testing.T) {
	store := NewFileStyleStore(t.TempDir())
	got, err := store.Read("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil snapshot, got %+v", got)
	}
}
