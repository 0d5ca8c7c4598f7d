package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func openBolt(t *testing.T) GuildStore {
	t.Helper()
	boltStore := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err := boltStore.Open(); err != nil {
		t.Fatalf("could not open the store: %v", err)
	}
	t.Cleanup(func() { boltStore.Close() })
	return boltStore
}

// Both stores honor the same contract
func stores(t *testing.T) map[string]GuildStore {
	return map[string]GuildStore{
		"bolt":   openBolt(t),
		"memory": NewMemoryStore(),
	}
}

func TestRoundTrip(t *testing.T) {
	for name, guildStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			in := map[string]string{"Adammast": "CRW", "Bob": "WLV"}
			if err := guildStore.Put("guild1", KeyPrefixes, in); err != nil {
				t.Fatalf("put failed: %v", err)
			}
			var out map[string]string
			if err := guildStore.Get("guild1", KeyPrefixes, &out); err != nil {
				t.Fatalf("get failed: %v", err)
			}
			if len(out) != 2 || out["Adammast"] != "CRW" || out["Bob"] != "WLV" {
				t.Fatalf("unexpected value %v", out)
			}
		})
	}
}

func TestMissingKeys(t *testing.T) {
	for name, guildStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var out string
			if err := guildStore.Get("guild1", KeyStreamChannel, &out); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for an unknown guild, got %v", err)
			}
			if err := guildStore.Put("guild1", KeyStreamChannel, "chan1"); err != nil {
				t.Fatalf("put failed: %v", err)
			}
			if err := guildStore.Get("guild1", KeyTransactionChannel, &out); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for an unknown key, got %v", err)
			}
		})
	}
}

func TestGuildsAreIsolated(t *testing.T) {
	for name, guildStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := guildStore.Put("guild1", KeyStreamChannel, "chan1"); err != nil {
				t.Fatalf("put failed: %v", err)
			}
			var out string
			if err := guildStore.Get("guild2", KeyStreamChannel, &out); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound in the other guild, got %v", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for name, guildStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := guildStore.Put("guild1", KeyStreamChannel, "chan1"); err != nil {
				t.Fatalf("put failed: %v", err)
			}
			if err := guildStore.Delete("guild1", KeyStreamChannel); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			var out string
			if err := guildStore.Get("guild1", KeyStreamChannel, &out); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			// Deleting what is not there is not an error
			if err := guildStore.Delete("guild2", KeyStreamChannel); err != nil {
				t.Fatalf("delete of a missing key failed: %v", err)
			}
		})
	}
}

func TestOverwrite(t *testing.T) {
	for name, guildStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := guildStore.Put("guild1", KeyStreamChannel, "chan1"); err != nil {
				t.Fatalf("put failed: %v", err)
			}
			if err := guildStore.Put("guild1", KeyStreamChannel, "chan2"); err != nil {
				t.Fatalf("second put failed: %v", err)
			}
			var out string
			if err := guildStore.Get("guild1", KeyStreamChannel, &out); err != nil {
				t.Fatalf("get failed: %v", err)
			}
			if out != "chan2" {
				t.Fatalf("expected the value to be overwritten, got %q", out)
			}
		})
	}
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test.db")

	boltStore := NewBoltStore(filename)
	if err := boltStore.Open(); err != nil {
		t.Fatalf("could not open the store: %v", err)
	}
	if err := boltStore.Put("guild1", KeyStreamChannel, "chan1"); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := boltStore.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	boltStore = NewBoltStore(filename)
	if err := boltStore.Open(); err != nil {
		t.Fatalf("could not reopen the store: %v", err)
	}
	defer boltStore.Close()
	var out string
	if err := boltStore.Get("guild1", KeyStreamChannel, &out); err != nil {
		t.Fatalf("get after reopen failed: %v", err)
	}
	if out != "chan1" {
		t.Fatalf("unexpected value %q", out)
	}
}
