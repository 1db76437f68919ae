package keystore

import (
	"bytes"
	"sync"
	"testing"
)

func TestInsertLookupDelete(t *testing.T) {
	s := New()

	s.Insert("room1", Entry{PrivateKey: []byte("secret"), IsCreator: true})

	entry, ok := s.Lookup("room1")
	if !ok {
		t.Fatal("Lookup: got missing, want entry")
	}
	if !bytes.Equal(entry.PrivateKey, []byte("secret")) {
		t.Errorf("PrivateKey: got %q, want %q", entry.PrivateKey, "secret")
	}
	if !entry.IsCreator {
		t.Error("IsCreator: got false, want true")
	}

	s.Delete("room1")
	if _, ok := s.Lookup("room1"); ok {
		t.Error("Lookup after delete: got entry, want missing")
	}
}

func TestLookupUnknownRoom(t *testing.T) {
	s := New()
	if _, ok := s.Lookup("missing"); ok {
		t.Error("Lookup: got entry, want missing")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%5))
			s.Insert(id, Entry{PrivateKey: []byte{byte(i)}})
			s.Lookup(id)
			if i%2 == 0 {
				s.Delete(id)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() > 5 {
		t.Errorf("Len: got %d, want <= 5", s.Len())
	}
}
