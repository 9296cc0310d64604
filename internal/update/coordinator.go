// Package update decides when the client should be told a new asset
// generation exists, and applies it once the user accepts.
package update

import (
	"fmt"
	"log/slog"
)

// assetManager is the slice of the asset-cache manager the coordinator
// needs: what is serving, what is waiting, and the switch.
type assetManager interface {
	Version() string
	Pending() string
	ActivatePending() error
}

// versionMemory remembers the last version this install has announced.
type versionMemory interface {
	RememberedVersion() (string, bool, error)
	RememberVersion(string) error
}

// Status is the result of one update check.
type Status struct {
	Current         string `json:"current"`
	Pending         string `json:"pending,omitempty"`
	UpdateAvailable bool   `json:"updateAvailable"`
}

// Coordinator compares the serving asset generation against the
// remembered one and surfaces a single update-available signal. The
// notify hook fires when an accepted update finishes activating.
type Coordinator struct {
	assets assetManager
	memory versionMemory
	notify func(version string)
	logger *slog.Logger
}

func NewCoordinator(assets assetManager, memory versionMemory, logger *slog.Logger) *Coordinator {
	return &Coordinator{assets: assets, memory: memory, logger: logger}
}

// OnApplied registers a hook invoked after an update activates, with
// the newly active version. Used to broadcast to connected clients.
func (c *Coordinator) OnApplied(fn func(version string)) {
	c.notify = fn
}

// Check records the serving version and reports whether an update is
// worth announcing. A first-ever run remembers the version silently; a
// waiting generation or a version change since the last check signals.
func (c *Coordinator) Check() (Status, error) {
	current := c.assets.Version()
	pending := c.assets.Pending()

	remembered, seen, err := c.memory.RememberedVersion()
	if err != nil {
		return Status{}, fmt.Errorf("read remembered version: %w", err)
	}
	if err := c.memory.RememberVersion(current); err != nil {
		return Status{}, fmt.Errorf("remember version: %w", err)
	}

	status := Status{
		Current: current,
		Pending: pending,
		UpdateAvailable: pending != "" ||
			(seen && remembered != current),
	}
	if status.UpdateAvailable {
		c.logger.Info("update available", "current", current, "pending", pending)
	}
	return status, nil
}

// Apply activates the waiting generation, the server-side counterpart
// of the user clicking "Update now". A no-op when nothing waits.
func (c *Coordinator) Apply() (Status, error) {
	before := c.assets.Version()
	if err := c.assets.ActivatePending(); err != nil {
		return Status{}, fmt.Errorf("activate pending: %w", err)
	}

	current := c.assets.Version()
	if err := c.memory.RememberVersion(current); err != nil {
		return Status{}, fmt.Errorf("remember version: %w", err)
	}
	if current != before && c.notify != nil {
		c.notify(current)
	}
	return Status{Current: current, Pending: c.assets.Pending()}, nil
}
