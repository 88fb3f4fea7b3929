package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"promptsmith/config"
)

type backend struct {
	name string
	open func(t *testing.T) Provider
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) Provider { return NewMemoryStore(0) }},
		{"file", func(t *testing.T) Provider {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "store"), 0)
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			return s
		}},
		{"sqlite", func(t *testing.T) Provider {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"), 0)
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		}},
		{"redis", func(t *testing.T) Provider {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			return NewRedisStoreWithClient(client, "test")
		}},
	}
}

// TestProviderContract runs the same behaviour checks against every backend.
func TestProviderContract(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Run("MissIsNotAnError", func(t *testing.T) {
				s := b.open(t)
				v, ok, err := s.GetItem(ctx, "absent")
				if err != nil || ok || v != "" {
					t.Errorf("GetItem(absent) = (%q, %v, %v)", v, ok, err)
				}
			})

			t.Run("SetGetOverwrite", func(t *testing.T) {
				s := b.open(t)
				if err := s.SetItem(ctx, KeyModels, `{"a":1}`); err != nil {
					t.Fatalf("SetItem: %v", err)
				}
				if err := s.SetItem(ctx, KeyModels, `{"a":2}`); err != nil {
					t.Fatalf("SetItem overwrite: %v", err)
				}
				v, ok, err := s.GetItem(ctx, KeyModels)
				if err != nil || !ok || v != `{"a":2}` {
					t.Errorf("GetItem = (%q, %v, %v)", v, ok, err)
				}
			})

			t.Run("RemoveIsIdempotent", func(t *testing.T) {
				s := b.open(t)
				_ = s.SetItem(ctx, "k", "v")
				if err := s.RemoveItem(ctx, "k"); err != nil {
					t.Fatalf("RemoveItem: %v", err)
				}
				if err := s.RemoveItem(ctx, "k"); err != nil {
					t.Errorf("second RemoveItem: %v", err)
				}
				if _, ok, _ := s.GetItem(ctx, "k"); ok {
					t.Error("key survived RemoveItem")
				}
			})

			t.Run("Clear", func(t *testing.T) {
				s := b.open(t)
				for _, k := range []string{KeyModels, KeyTemplates, KeyHistory} {
					if err := s.SetItem(ctx, k, "[]"); err != nil {
						t.Fatalf("SetItem(%s): %v", k, err)
					}
				}
				if err := s.Clear(ctx); err != nil {
					t.Fatalf("Clear: %v", err)
				}
				for _, k := range []string{KeyModels, KeyTemplates, KeyHistory} {
					if _, ok, _ := s.GetItem(ctx, k); ok {
						t.Errorf("%s survived Clear", k)
					}
				}
			})

			t.Run("UnicodeValues", func(t *testing.T) {
				s := b.open(t)
				want := `{"p":"一只猫在雨中"}`
				_ = s.SetItem(ctx, "u", want)
				if v, _, _ := s.GetItem(ctx, "u"); v != want {
					t.Errorf("GetItem = %q, want %q", v, want)
				}
			})
		})
	}
}

func TestQuota(t *testing.T) {
	ctx := context.Background()

	quotaBackends := map[string]func(t *testing.T, limit int64) Provider{
		"memory": func(t *testing.T, limit int64) Provider { return NewMemoryStore(limit) },
		"file": func(t *testing.T, limit int64) Provider {
			s, err := NewFileStore(t.TempDir(), limit)
			if err != nil {
				t.Fatal(err)
			}
			return s
		},
		"sqlite": func(t *testing.T, limit int64) Provider {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"), limit)
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}

	for name, open := range quotaBackends {
		t.Run(name, func(t *testing.T) {
			s := open(t, 20)

			if err := s.SetItem(ctx, "k", strings.Repeat("x", 10)); err != nil {
				t.Fatalf("SetItem under quota: %v", err)
			}
			err := s.SetItem(ctx, "other", strings.Repeat("x", 15))
			if !errors.Is(err, ErrQuotaExceeded) {
				t.Fatalf("SetItem over quota = %v, want ErrQuotaExceeded", err)
			}
			// Replacing a key only counts the new size.
			if err := s.SetItem(ctx, "k", strings.Repeat("y", 19)); err != nil {
				t.Errorf("overwrite within quota: %v", err)
			}
			_ = s.RemoveItem(ctx, "k")
			if err := s.SetItem(ctx, "other", strings.Repeat("x", 15)); err != nil {
				t.Errorf("SetItem after RemoveItem freed space: %v", err)
			}
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "store")

	s, err := NewFileStore(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetItem(ctx, KeyHistory, "[]"); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(filepath.Join(dir, "promptsmith%3Ahistory.json"))
	if err != nil {
		t.Fatalf("document file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("document perms = %o, want 600", info.Mode().Perm())
	}

	// A reopened store sees existing documents and counts them for quota.
	reopened, err := NewFileStore(dir, int64(len(KeyHistory)+2))
	if err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := reopened.GetItem(ctx, KeyHistory); !ok || v != "[]" {
		t.Errorf("reopened GetItem = (%q, %v)", v, ok)
	}
	if err := reopened.SetItem(ctx, "more", "x"); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("quota not restored from disk: %v", err)
	}
}

func TestRedisClearKeepsForeignKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStoreWithClient(client, "")
	_ = s.SetItem(ctx, KeyModels, "{}")
	mr.Set("unrelated", "keep")

	if !mr.Exists("promptsmith/" + KeyModels) {
		t.Fatal("document not stored under the default prefix")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("promptsmith/" + KeyModels) {
		t.Error("prefixed key survived Clear")
	}
	if !mr.Exists("unrelated") {
		t.Error("Clear removed a key outside the prefix")
	}
}

func TestJSONAdapter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	got, err := GetData(ctx, s, "list", []string{"default"})
	if err != nil || len(got) != 1 || got[0] != "default" {
		t.Fatalf("GetData on miss = (%v, %v)", got, err)
	}

	next, err := UpdateData(ctx, s, "list", []string{}, func(cur []string) ([]string, error) {
		return append(cur, "a"), nil
	})
	if err != nil || len(next) != 1 {
		t.Fatalf("UpdateData = (%v, %v)", next, err)
	}

	boom := errors.New("boom")
	_, err = UpdateData(ctx, s, "list", []string{}, func(cur []string) ([]string, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("UpdateData fn error = %v", err)
	}
	if got, _ := GetData(ctx, s, "list", []string(nil)); len(got) != 1 || got[0] != "a" {
		t.Errorf("failed update changed the document: %v", got)
	}

	_ = s.SetItem(ctx, "bad", "{not json")
	if _, err := GetData(ctx, s, "bad", 0); err == nil {
		t.Error("GetData on malformed JSON should fail")
	}

	if err := RemoveData(ctx, s, "list"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.GetItem(ctx, "list"); ok {
		t.Error("RemoveData left the key")
	}

	full := NewMemoryStore(4)
	if err := SetData(ctx, full, "k", "too long"); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("SetData should wrap ErrQuotaExceeded, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()

	tests := []struct {
		backend string
		want    string
	}{
		{"memory", "*storage.MemoryStore"},
		{"file", "*storage.FileStore"},
		{"", "*storage.FileStore"},
		{"sqlite", "*storage.SQLiteStore"},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &config.Config{DataDirectory: dataDir, Storage: config.StorageConfig{Backend: tt.backend}}
			p, err := Open(ctx, cfg)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer Close(p)
			if got := typeName(p); got != tt.want {
				t.Errorf("Open(%q) = %s, want %s", tt.backend, got, tt.want)
			}
		})
	}

	mr := miniredis.RunT(t)
	cfg := &config.Config{DataDirectory: dataDir, Storage: config.StorageConfig{Backend: "redis", RedisAddr: mr.Addr()}}
	p, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open(redis): %v", err)
	}
	Close(p)

	if _, err := Open(ctx, &config.Config{Storage: config.StorageConfig{Backend: "etcd"}}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func typeName(p Provider) string {
	switch p.(type) {
	case *MemoryStore:
		return "*storage.MemoryStore"
	case *FileStore:
		return "*storage.FileStore"
	case *SQLiteStore:
		return "*storage.SQLiteStore"
	case *RedisStore:
		return "*storage.RedisStore"
	}
	return "unknown"
}
