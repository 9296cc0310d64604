// Package inventory orchestrates item operations: validation, photo
// optimization, persistence, and cache invalidation, in that order.
package inventory

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neststash/neststash/internal/cache"
	"github.com/neststash/neststash/internal/imageopt"
	"github.com/neststash/neststash/internal/model"
	"github.com/neststash/neststash/internal/query"
	"github.com/neststash/neststash/internal/store"
)

// ValidationError reports a rejected input field. Nothing is persisted
// when validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var sortFields = map[string]bool{
	"name":     true,
	"category": true,
	"shop":     true,
	"price":    true,
	"date":     true,
}

// CompressReport summarizes one bulk recompression pass.
type CompressReport struct {
	Scanned    int `json:"scanned"`
	Compressed int `json:"compressed"`
	SavedBytes int `json:"savedBytes"`
}

// Service is the session context for all inventory operations. It owns
// the read-through cache; every mutation path invalidates it before
// returning, which is the one rule this layer must never break.
//
// Two concurrently in-flight edits of the same item resolve
// last-write-wins at the store. That is accepted behavior for a
// single-user local tool.
type Service struct {
	items      *store.ItemStore
	settings   *store.SettingsStore
	cache      *cache.Cache
	engine     *query.Engine
	minSavings int
	logger     *slog.Logger
}

// NewService wires a service over the given stores. minSavings is the
// minimum savings percentage for bulk recompression to keep a smaller
// photo (the original app hardcoded 15; here it is policy).
func NewService(items *store.ItemStore, settings *store.SettingsStore, minSavings int, logger *slog.Logger) *Service {
	return &Service{
		items:      items,
		settings:   settings,
		cache:      cache.New(items),
		engine:     query.New(),
		minSavings: minSavings,
		logger:     logger,
	}
}

func validate(item *model.Item) error {
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	item.Shop = strings.TrimSpace(item.Shop)

	if item.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if item.Category == "" {
		return &ValidationError{Field: "category", Reason: "is required"}
	}
	if item.Price < 0 {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return nil
}

// optimizePhoto recompresses the photo at the configured quality. A
// photo that fails to decode is stored as-is.
func (s *Service) optimizePhoto(photo string) (string, error) {
	if photo == "" {
		return "", nil
	}
	settings, err := s.settings.Load()
	if err != nil {
		return "", err
	}
	result := imageopt.Optimize(photo, settings.ImageCompression.Quality)
	return result.Photo, nil
}

// SaveItem validates, optimizes the photo, persists, and invalidates
// the cache. The store assigns id and dateAdded.
func (s *Service) SaveItem(item model.Item) (*model.Item, error) {
	item.ID = 0
	item.DateAdded = time.Time{}
	if err := validate(&item); err != nil {
		return nil, err
	}

	photo, err := s.optimizePhoto(item.Photo)
	if err != nil {
		return nil, err
	}
	item.Photo = photo

	saved, err := s.items.Create(item)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return saved, nil
}

// UpdateItem replaces all mutable fields of an existing item. The
// store preserves dateAdded; store.ErrNotFound surfaces for a missing id.
func (s *Service) UpdateItem(item model.Item) (*model.Item, error) {
	if err := validate(&item); err != nil {
		return nil, err
	}

	photo, err := s.optimizePhoto(item.Photo)
	if err != nil {
		return nil, err
	}
	item.Photo = photo

	updated, err := s.items.Update(item)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return updated, nil
}

func (s *Service) GetItem(id int64) (*model.Item, error) {
	return s.items.GetByID(id)
}

// DeleteItem removes an item; deleting a missing id is a no-op.
func (s *Service) DeleteItem(id int64) error {
	if err := s.items.Delete(id); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// ClearAll empties the store.
func (s *Service) ClearAll() error {
	if err := s.items.Clear(); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// List returns the cached snapshot filtered and sorted. An empty sort
// field falls back to the saved default sort.
func (s *Service) List(filters query.Filters, sortSpec model.SortSpec) ([]model.Item, error) {
	if sortSpec.Field == "" {
		settings, err := s.settings.Load()
		if err != nil {
			return nil, err
		}
		sortSpec = settings.DefaultSort
	}

	items, err := s.cache.Read()
	if err != nil {
		return nil, err
	}
	return s.engine.Apply(items, filters, sortSpec), nil
}

// CategoryOptions returns the distinct categories, optionally narrowed
// to those containing the search text (dropdown suggestions).
func (s *Service) CategoryOptions(search string) ([]string, error) {
	values, err := s.cache.Categories()
	if err != nil {
		return nil, err
	}
	return narrow(values, search), nil
}

// ShopOptions returns the distinct shops, optionally narrowed.
func (s *Service) ShopOptions(search string) ([]string, error) {
	values, err := s.cache.Shops()
	if err != nil {
		return nil, err
	}
	return narrow(values, search), nil
}

func narrow(values []string, search string) []string {
	if search == "" {
		return values
	}
	term := strings.ToLower(search)
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			out = append(out, v)
		}
	}
	return out
}

// Export snapshots the entire store and settings into a backup file.
func (s *Service) Export() (*model.BackupFile, error) {
	items, err := s.items.GetAll()
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	settings, err := s.settings.Load()
	if err != nil {
		return nil, err
	}
	return &model.BackupFile{
		Items:      items,
		Settings:   settings,
		ExportDate: time.Now().UTC(),
	}, nil
}

// Import appends every item from a parsed backup file, assigning fresh
// ids. It never deletes existing items. Each record write is atomic but
// the batch is not: a failure partway leaves the already-imported items
// in place, and the count reports how many landed.
func (s *Service) Import(file *model.BackupFile) (int, error) {
	imported := 0
	defer func() {
		if imported > 0 {
			s.cache.Invalidate()
		}
	}()

	for _, item := range file.Items {
		item.ID = 0
		if err := validate(&item); err != nil {
			return imported, fmt.Errorf("item %d: %w", imported+1, err)
		}
		if _, err := s.items.Create(item); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// BulkCompress recompresses every stored photo at the current quality
// setting, keeping the smaller payload only when it saves at least the
// configured minimum percentage. Interrupting the batch is recoverable:
// items already rewritten stay rewritten.
func (s *Service) BulkCompress() (CompressReport, error) {
	var report CompressReport
	defer func() {
		if report.Compressed > 0 {
			s.cache.Invalidate()
		}
	}()

	settings, err := s.settings.Load()
	if err != nil {
		return report, err
	}
	quality := settings.ImageCompression.Quality

	items, err := s.items.GetAll()
	if err != nil {
		return report, err
	}

	for _, item := range items {
		if item.Photo == "" {
			continue
		}
		report.Scanned++

		result := imageopt.Optimize(item.Photo, quality)
		if !result.Optimized() {
			continue
		}
		savings := imageopt.SavingsPercent(result.OriginalBytes, result.OptimizedBytes, quality)
		if savings < s.minSavings {
			continue
		}

		item.Photo = result.Photo
		if _, err := s.items.Update(item); err != nil {
			return report, err
		}
		report.Compressed++
		report.SavedBytes += result.OriginalBytes - result.OptimizedBytes
	}

	s.logger.Info("bulk compression finished",
		"scanned", report.Scanned,
		"compressed", report.Compressed,
		"saved_bytes", report.SavedBytes,
	)
	return report, nil
}

// Settings returns the current settings document.
func (s *Service) Settings() (model.Settings, error) {
	return s.settings.Load()
}

// SaveSettings validates and persists the settings document.
func (s *Service) SaveSettings(settings model.Settings) error {
	if settings.Currency == "" {
		return &ValidationError{Field: "currency", Reason: "is required"}
	}
	if !sortFields[settings.DefaultSort.Field] {
		return &ValidationError{Field: "defaultSort.field", Reason: "must be name, category, shop, price, or date"}
	}
	if d := settings.DefaultSort.Direction; d != "asc" && d != "desc" {
		return &ValidationError{Field: "defaultSort.direction", Reason: "must be asc or desc"}
	}
	if q := settings.ImageCompression.Quality; q <= 0 || q > 1 {
		return &ValidationError{Field: "imageCompression.quality", Reason: "must be in (0, 1]"}
	}
	return s.settings.Save(settings)
}
