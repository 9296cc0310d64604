package store

import (
	"errors"
	"testing"

	"github.com/neststash/neststash/internal/database"
)

func setupAssetStore(t *testing.T) *AssetStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAssetStore(db)
}

func TestAssetPutGet(t *testing.T) {
	s := setupAssetStore(t)

	if err := s.Put("v1", "/index.html", "text/html", []byte("<html>")); err != nil {
		t.Fatalf("put: %v", err)
	}

	a, err := s.Get("v1", "/index.html")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.ContentType != "text/html" {
		t.Errorf("content type = %q, want text/html", a.ContentType)
	}
	if string(a.Body) != "<html>" {
		t.Errorf("body = %q", a.Body)
	}

	// Put replaces in place.
	if err := s.Put("v1", "/index.html", "text/html", []byte("<html>2")); err != nil {
		t.Fatalf("put again: %v", err)
	}
	a, _ = s.Get("v1", "/index.html")
	if string(a.Body) != "<html>2" {
		t.Errorf("body after replace = %q", a.Body)
	}
}

func TestAssetGetMissing(t *testing.T) {
	s := setupAssetStore(t)

	_, err := s.Get("v1", "/nope.js")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAssetDeleteOthers(t *testing.T) {
	s := setupAssetStore(t)

	s.Put("v1", "/app.js", "text/javascript", []byte("old"))
	s.Put("v2", "/app.js", "text/javascript", []byte("new"))
	s.Put("v3", "/app.js", "text/javascript", []byte("newer"))

	if err := s.DeleteOthers("v2"); err != nil {
		t.Fatalf("delete others: %v", err)
	}

	versions, err := s.Versions()
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 1 || versions[0] != "v2" {
		t.Errorf("versions = %v, want [v2]", versions)
	}
}
