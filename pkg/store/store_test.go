package store

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "spawnwatch-store-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	st, err := NewStore(filepath.Join(tmpDir, "spawnwatch.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestNewStoreCreatesSchema(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "spawnwatch-store-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "spawnwatch.db")
	st, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer st.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}

	var tableName string
	err = st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&tableName)
	if err != nil {
		t.Fatalf("failed to query sqlite_master for kv table: %v", err)
	}
	if tableName != "kv" {
		t.Errorf("expected table 'kv' to exist, but it was not found")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	st := newTestStore(t)

	if _, ok := st.Get("missing"); ok {
		t.Error("expected absent for unset key")
	}

	st.Set(KeyVersion, []byte("7"))
	val, ok := st.Get(KeyVersion)
	if !ok || string(val) != "7" {
		t.Fatalf("expected 7, got %q (ok=%v)", val, ok)
	}

	// Overwrite
	st.Set(KeyVersion, []byte("8"))
	val, _ = st.Get(KeyVersion)
	if string(val) != "8" {
		t.Errorf("expected overwrite to 8, got %q", val)
	}

	st.Delete(KeyVersion)
	if _, ok := st.Get(KeyVersion); ok {
		t.Error("expected absent after delete")
	}

	// Deleting an absent key is a no-op.
	st.Delete(KeyVersion)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "spawnwatch-store-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)
	dbPath := filepath.Join(tmpDir, "spawnwatch.db")

	st, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	st.Set(KeyFollowed, []byte(`["a","b"]`))
	st.Close()

	reopened, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	val, ok := reopened.Get(KeyFollowed)
	if !ok || string(val) != `["a","b"]` {
		t.Errorf("expected persisted value after reopen, got %q (ok=%v)", val, ok)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()

	if _, ok := m.Get("missing"); ok {
		t.Error("expected absent for unset key")
	}

	m.Set("k", []byte("v"))
	val, ok := m.Get("k")
	if !ok || string(val) != "v" {
		t.Fatalf("expected v, got %q (ok=%v)", val, ok)
	}

	// Mutating the returned slice must not affect the stored copy.
	val[0] = 'x'
	val, _ = m.Get("k")
	if string(val) != "v" {
		t.Errorf("stored value was aliased, got %q", val)
	}

	m.Delete("k")
	if _, ok := m.Get("k"); ok {
		t.Error("expected absent after delete")
	}
}

func TestGetJSONMalformedTreatedAsAbsent(t *testing.T) {
	m := NewMemory()
	m.Set("bad", []byte("{not json"))

	var out map[string]string
	if GetJSON(m, "bad", &out) {
		t.Error("expected malformed JSON to report absent")
	}

	// The raw value survives; only the typed read degrades.
	if _, ok := m.Get("bad"); !ok {
		t.Error("raw value should still be present")
	}
}

func TestSetJSONRoundTrip(t *testing.T) {
	m := NewMemory()
	in := []string{"a", "b", "c"}
	SetJSON(m, KeyPinned, in)

	var out []string
	if !GetJSON(m, KeyPinned, &out) {
		t.Fatal("expected value present")
	}
	if len(out) != 3 || out[0] != "a" || out[2] != "c" {
		t.Errorf("round trip mismatch: %v", out)
	}
}
