// Package assetcache maintains versioned generations of the app's
// static resources, serving them with the service-worker policies the
// web client expects: network-first for the app shell, cache-first for
// everything else.
package assetcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/neststash/neststash/internal/store"
)

// NetworkError reports a failed origin fetch with no cached fallback.
type NetworkError struct {
	Path string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves a resource from the origin.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (*Resource, error)
}

// Resource is one served response body.
type Resource struct {
	Body        []byte
	ContentType string
	Status      int
}

// versionStore persists which generation is active across restarts.
type versionStore interface {
	ActiveAssetVersion() (string, bool, error)
	SetActiveAssetVersion(string) error
}

// Manager runs the generation state machine. A generation is
// installing while its manifest is being fetched, waiting once fully
// installed behind an active one, and active while its resources serve.
// Activation deletes every other generation.
type Manager struct {
	mu       sync.Mutex
	assets   *store.AssetStore
	versions versionStore
	fetcher  Fetcher
	active   string
	pending  string
	logger   *slog.Logger
}

func NewManager(assets *store.AssetStore, versions versionStore, fetcher Fetcher, logger *slog.Logger) (*Manager, error) {
	active, _, err := versions.ActiveAssetVersion()
	if err != nil {
		return nil, fmt.Errorf("load active version: %w", err)
	}
	return &Manager{
		assets:   assets,
		versions: versions,
		fetcher:  fetcher,
		active:   active,
		logger:   logger,
	}, nil
}

// Version returns the active generation's version string. This is what
// the /app-version endpoint reports.
func (m *Manager) Version() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Pending returns the waiting generation, if any.
func (m *Manager) Pending() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Sync brings the configured generation in. A fully installed matching
// generation is reused; otherwise the manifest is fetched into a fresh
// generation, all-or-nothing. With no active generation the new one
// activates immediately (first install); otherwise it waits for an
// explicit activate-pending command.
func (m *Manager) Sync(ctx context.Context, version string, manifest []string) error {
	if version == "" {
		return fmt.Errorf("empty asset version")
	}

	m.mu.Lock()
	active := m.active
	m.mu.Unlock()

	if version == active {
		return nil
	}

	installed, err := m.assets.CountVersion(version)
	if err != nil {
		return err
	}
	if installed < len(manifest) {
		if err := m.install(ctx, version, manifest); err != nil {
			return err
		}
	}

	if active == "" {
		return m.Activate(version)
	}

	m.mu.Lock()
	m.pending = version
	m.mu.Unlock()
	m.logger.Info("asset generation waiting", "version", version, "active", active)
	return nil
}

// install fetches every manifest entry into the named generation. Any
// failure abandons the partial generation; the previous one stays
// active.
func (m *Manager) install(ctx context.Context, version string, manifest []string) error {
	m.logger.Info("installing asset generation", "version", version, "resources", len(manifest))

	for _, path := range manifest {
		res, err := m.fetcher.Fetch(ctx, path)
		if err == nil && res.Status != 200 {
			err = fmt.Errorf("status %d", res.Status)
		}
		if err != nil {
			if derr := m.assets.DeleteVersion(version); derr != nil {
				m.logger.Error("abandon partial generation", "version", version, "error", derr)
			}
			return fmt.Errorf("install %s: fetch %s: %w", version, path, err)
		}
		if err := m.assets.Put(version, path, res.ContentType, res.Body); err != nil {
			m.assets.DeleteVersion(version)
			return err
		}
	}
	return nil
}

// Activate makes the generation current and garbage-collects all
// others. Called on first install and on the activate-pending command.
func (m *Manager) Activate(version string) error {
	if err := m.versions.SetActiveAssetVersion(version); err != nil {
		return err
	}
	if err := m.assets.DeleteOthers(version); err != nil {
		return err
	}

	m.mu.Lock()
	m.active = version
	if m.pending == version {
		m.pending = ""
	}
	m.mu.Unlock()

	m.logger.Info("asset generation activated", "version", version)
	return nil
}

// ActivatePending handles the {action: "activate-pending"} command. A
// no-op when no generation is waiting.
func (m *Manager) ActivatePending() error {
	m.mu.Lock()
	pending := m.pending
	m.mu.Unlock()
	if pending == "" {
		return nil
	}
	return m.Activate(pending)
}

// isAppShell reports whether a path gets the network-first policy:
// markup, script, style, and the root path.
func isAppShell(path string) bool {
	return path == "/" ||
		strings.HasSuffix(path, ".html") ||
		strings.HasSuffix(path, ".js") ||
		strings.HasSuffix(path, ".css")
}

// Serve resolves one request through the active generation.
func (m *Manager) Serve(ctx context.Context, path string) (*Resource, error) {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()

	if isAppShell(path) {
		return m.serveNetworkFirst(ctx, active, path)
	}
	return m.serveCacheFirst(ctx, active, path)
}

// serveNetworkFirst returns the live response when the origin answers,
// writing a copy back into the active generation; on network failure
// it falls back to the cached copy if one exists.
func (m *Manager) serveNetworkFirst(ctx context.Context, active, path string) (*Resource, error) {
	res, err := m.fetcher.Fetch(ctx, path)
	if err == nil {
		if res.Status == 200 && active != "" {
			if perr := m.assets.Put(active, path, res.ContentType, res.Body); perr != nil {
				m.logger.Warn("cache write-back failed", "path", path, "error", perr)
			}
		}
		return res, nil
	}

	if active != "" {
		cached, cerr := m.assets.Get(active, path)
		if cerr == nil {
			return &Resource{Body: cached.Body, ContentType: cached.ContentType, Status: 200}, nil
		}
		if !errors.Is(cerr, store.ErrNotFound) {
			return nil, cerr
		}
	}
	return nil, &NetworkError{Path: path, Err: err}
}

// serveCacheFirst returns the cached copy when present; otherwise it
// fetches from the origin, storing successful responses.
func (m *Manager) serveCacheFirst(ctx context.Context, active, path string) (*Resource, error) {
	if active != "" {
		cached, err := m.assets.Get(active, path)
		if err == nil {
			return &Resource{Body: cached.Body, ContentType: cached.ContentType, Status: 200}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	res, err := m.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, &NetworkError{Path: path, Err: err}
	}
	if res.Status == 200 && active != "" {
		if perr := m.assets.Put(active, path, res.ContentType, res.Body); perr != nil {
			m.logger.Warn("cache write-back failed", "path", path, "error", perr)
		}
	}
	return res, nil
}
