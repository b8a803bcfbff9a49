package conversation

import (
	"sync"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()

	if _, ok := store.Get(1); ok {
		t.Fatal("empty store returned a session")
	}
	if store.Active(1) {
		t.Fatal("empty store reported active")
	}

	store.Put(1, NewSession(ModeCreating, StepLocation))
	sess, ok := store.Get(1)
	if !ok || sess.Mode != ModeCreating || sess.Step != StepLocation {
		t.Fatalf("unexpected session: %+v ok=%v", sess, ok)
	}
	if !store.Active(1) {
		t.Fatal("stored session not reported active")
	}
	if store.Active(2) {
		t.Fatal("other user reported active")
	}

	store.Delete(1)
	if store.Active(1) {
		t.Fatal("deleted session still active")
	}
}

func TestMemoryStoreIdleNotActive(t *testing.T) {
	store := NewMemoryStore()
	store.Put(1, NewSession(ModeIdle, ""))
	if store.Active(1) {
		t.Fatal("idle session must not count as active")
	}
}

func TestMemoryStoreConcurrentUsers(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := int64(0); i < 32; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.Put(id, NewSession(ModeEditing, StepFieldChoice))
			if !store.Active(id) {
				t.Errorf("user %d not active after put", id)
			}
			store.Delete(id)
		}(i)
	}
	wg.Wait()
}
