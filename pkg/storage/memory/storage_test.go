// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pwkeychain.
//
// go-pwkeychain is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package memory

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jeremyhahn/go-pwkeychain/pkg/storage"
)

func TestNew(t *testing.T) {
	store := New()
	keys, err := store.List("")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("New store should be empty, got %d keys", len(keys))
	}
}

func TestPutGet(t *testing.T) {
	store := New()

	tests := []struct {
		name  string
		key   string
		value []byte
	}{
		{"snapshot", "keychains/a.json", []byte(`{"magic":"x"}`)},
		{"empty value", "empty", []byte{}},
		{"binary", "bin", []byte{0, 1, 2, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Put(tt.key, tt.value, nil); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			got, err := store.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !bytes.Equal(got, tt.value) {
				t.Errorf("Get() = %v, want %v", got, tt.value)
			}
		})
	}
}

func TestCopiesAreIndependent(t *testing.T) {
	store := New()
	value := []byte("original")
	if err := store.Put("k", value, nil); err != nil {
		t.Fatal(err)
	}

	value[0] = 'X'
	got, _ := store.Get("k")
	if string(got) != "original" {
		t.Errorf("stored value changed through caller slice: %q", got)
	}

	got[0] = 'Y'
	again, _ := store.Get("k")
	if string(again) != "original" {
		t.Errorf("stored value changed through returned slice: %q", again)
	}
}

func TestOverwriteWipesPreviousValue(t *testing.T) {
	s := New().(*Storage)
	if err := s.Put("k", []byte("secret"), nil); err != nil {
		t.Fatal(err)
	}
	old := s.data["k"]

	if err := s.Put("k", []byte("new"), nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(old, make([]byte, len(old))) {
		t.Errorf("previous value not wiped: %q", old)
	}
}

func TestDelete(t *testing.T) {
	s := New().(*Storage)
	if err := s.Put("k", []byte("secret"), nil); err != nil {
		t.Fatal(err)
	}
	old := s.data["k"]

	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !bytes.Equal(old, make([]byte, len(old))) {
		t.Error("deleted value not wiped")
	}
	if err := s.Delete("k"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get("k"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	store := New()
	for _, k := range []string{"keychains/b.json", "keychains/a.json", "other"} {
		if err := store.Put(k, []byte("v"), nil); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := store.List("keychains/")
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(keys) != "[keychains/a.json keychains/b.json]" {
		t.Errorf("List() = %v", keys)
	}
}

func TestInvalidKey(t *testing.T) {
	store := New()
	if err := store.Put("../x", []byte("v"), nil); !errors.Is(err, storage.ErrInvalidKey) {
		t.Errorf("Put() error = %v, want ErrInvalidKey", err)
	}
	if _, err := store.Get(""); !errors.Is(err, storage.ErrInvalidKey) {
		t.Errorf("Get() error = %v, want ErrInvalidKey", err)
	}
}

func TestClose(t *testing.T) {
	s := New().(*Storage)
	if err := s.Put("k", []byte("secret"), nil); err != nil {
		t.Fatal(err)
	}
	old := s.data["k"]

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(old, make([]byte, len(old))) {
		t.Error("value not wiped on Close")
	}

	if _, err := s.Get("k"); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Get() error = %v, want ErrClosed", err)
	}
	if err := s.Put("k", nil, nil); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Put() error = %v, want ErrClosed", err)
	}
	if err := s.Delete("k"); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Delete() error = %v, want ErrClosed", err)
	}
	if _, err := s.List(""); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("List() error = %v, want ErrClosed", err)
	}
	if _, err := s.Exists("k"); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Exists() error = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			for j := 0; j < 100; j++ {
				if err := store.Put(key, []byte{byte(j)}, nil); err != nil {
					t.Errorf("Put() error = %v", err)
					return
				}
				if _, err := store.Get(key); err != nil {
					t.Errorf("Get() error = %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
