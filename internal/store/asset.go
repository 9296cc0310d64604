package store

import (
	"database/sql"
	"time"
)

// CachedAsset is one resource body inside an asset-cache generation.
type CachedAsset struct {
	Version     string
	Path        string
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// AssetStore persists asset-cache generations. A generation is the set
// of rows sharing a version string.
type AssetStore struct {
	db *sql.DB
}

func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

// Put writes or replaces one cached resource in a generation.
func (s *AssetStore) Put(version, path, contentType string, body []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO asset_cache (version, path, content_type, body, fetched_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(version, path) DO UPDATE SET content_type = excluded.content_type, body = excluded.body, fetched_at = excluded.fetched_at`,
		version, path, contentType, body, time.Now().UTC(),
	)
	if err != nil {
		return storageErr("put asset", err)
	}
	return nil
}

func (s *AssetStore) Get(version, path string) (*CachedAsset, error) {
	var a CachedAsset
	err := s.db.QueryRow(
		`SELECT version, path, content_type, body, fetched_at FROM asset_cache WHERE version = ? AND path = ?`,
		version, path,
	).Scan(&a.Version, &a.Path, &a.ContentType, &a.Body, &a.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get asset", err)
	}
	return &a, nil
}

// Versions lists every generation present in the cache.
func (s *AssetStore) Versions() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT version FROM asset_cache ORDER BY version`)
	if err != nil {
		return nil, storageErr("list asset versions", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, storageErr("scan asset version", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list asset versions", err)
	}
	return versions, nil
}

// DeleteVersion drops one generation entirely.
func (s *AssetStore) DeleteVersion(version string) error {
	if _, err := s.db.Exec(`DELETE FROM asset_cache WHERE version = ?`, version); err != nil {
		return storageErr("delete asset version", err)
	}
	return nil
}

// DeleteOthers drops every generation except the given one. Called
// after a generation activates.
func (s *AssetStore) DeleteOthers(version string) error {
	if _, err := s.db.Exec(`DELETE FROM asset_cache WHERE version != ?`, version); err != nil {
		return storageErr("delete stale asset versions", err)
	}
	return nil
}

func (s *AssetStore) CountVersion(version string) (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM asset_cache WHERE version = ?`, version).Scan(&count); err != nil {
		return 0, storageErr("count assets", err)
	}
	return count, nil
}
