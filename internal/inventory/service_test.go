package inventory

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/neststash/neststash/internal/database"
	"github.com/neststash/neststash/internal/model"
	"github.com/neststash/neststash/internal/query"
	"github.com/neststash/neststash/internal/store"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store.NewItemStore(db), store.NewSettingsStore(db), 15, logger)
}

func largePhoto(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1200, 900))
	for x := 0; x < 1200; x += 3 {
		for y := 0; y < 900; y += 3 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestSaveItemAssignsIDAndDate(t *testing.T) {
	s := setupService(t)

	item, err := s.SaveItem(model.Item{Name: "Lamp", Category: "Furniture", Price: 25.00})
	if err != nil {
		t.Fatalf("save item: %v", err)
	}
	if item.ID == 0 {
		t.Error("expected assigned id")
	}
	if item.DateAdded.IsZero() {
		t.Error("expected dateAdded set at save time")
	}
	if item.Photo != "" {
		t.Error("photo should be absent")
	}
}

func TestSaveItemValidation(t *testing.T) {
	s := setupService(t)

	cases := []struct {
		name  string
		item  model.Item
		field string
	}{
		{"missing name", model.Item{Category: "Furniture"}, "name"},
		{"blank name", model.Item{Name: "   ", Category: "Furniture"}, "name"},
		{"missing category", model.Item{Name: "Lamp"}, "category"},
		{"negative price", model.Item{Name: "Lamp", Category: "Furniture", Price: -1}, "price"},
	}
	for _, tc := range cases {
		_, err := s.SaveItem(tc.item)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: err = %v, want ValidationError", tc.name, err)
			continue
		}
		if verr.Field != tc.field {
			t.Errorf("%s: field = %q, want %q", tc.name, verr.Field, tc.field)
		}
	}

	// Validation failures must not persist anything.
	items, err := s.List(query.Filters{}, model.SortSpec{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty store after rejected saves, got %d items", len(items))
	}
}

func TestUpdatePreservesDateAdded(t *testing.T) {
	s := setupService(t)

	item, _ := s.SaveItem(model.Item{Name: "Lamp", Category: "Furniture", Price: 25.00})

	item.Price = 30.00
	updated, err := s.UpdateItem(*item)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Price != 30.00 {
		t.Errorf("price = %v, want 30.00", updated.Price)
	}
	if !updated.DateAdded.Equal(item.DateAdded) {
		t.Error("dateAdded must not change on update")
	}
}

func TestUpdateMissingItem(t *testing.T) {
	s := setupService(t)

	_, err := s.UpdateItem(model.Item{ID: 99, Name: "Ghost", Category: "Misc"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListReflectsMutations(t *testing.T) {
	s := setupService(t)

	lamp, _ := s.SaveItem(model.Item{Name: "Lamp", Category: "Furniture"})
	s.SaveItem(model.Item{Name: "Mug", Category: "Kitchen"})

	items, err := s.List(query.Filters{}, model.SortSpec{Field: "name", Direction: "asc"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	// Delete then list again: the cache must have been invalidated.
	if err := s.DeleteItem(lamp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, _ = s.List(query.Filters{}, model.SortSpec{Field: "name", Direction: "asc"})
	if len(items) != 1 || items[0].Name != "Mug" {
		t.Errorf("after delete: %+v", items)
	}

	if err := s.ClearAll(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	items, _ = s.List(query.Filters{}, model.SortSpec{})
	if len(items) != 0 {
		t.Errorf("after clear: expected 0 items, got %d", len(items))
	}
}

func TestListFiltersByCategory(t *testing.T) {
	s := setupService(t)

	s.SaveItem(model.Item{Name: "Lamp", Category: "Furniture"})
	s.SaveItem(model.Item{Name: "Mug", Category: "Kitchen"})

	items, err := s.List(query.Filters{Category: "Furniture"}, model.SortSpec{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Lamp" {
		t.Errorf("filtered list = %+v, want [Lamp]", items)
	}
}

func TestListUsesDefaultSortFromSettings(t *testing.T) {
	s := setupService(t)

	if err := s.SaveSettings(model.Settings{
		Currency:         "$",
		DefaultSort:      model.SortSpec{Field: "name", Direction: "asc"},
		ImageCompression: model.ImageCompression{Quality: 0.7},
	}); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	s.SaveItem(model.Item{Name: "Zebra print", Category: "Decor"})
	s.SaveItem(model.Item{Name: "Apple bowl", Category: "Kitchen"})

	items, err := s.List(query.Filters{}, model.SortSpec{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if items[0].Name != "Apple bowl" {
		t.Errorf("default sort not applied: first item %q", items[0].Name)
	}
}

func TestDropdownOptions(t *testing.T) {
	s := setupService(t)

	s.SaveItem(model.Item{Name: "Lamp", Category: "Furniture", Shop: "IKEA"})
	s.SaveItem(model.Item{Name: "Chair", Category: "Furniture", Shop: "Habitat"})
	s.SaveItem(model.Item{Name: "Mug", Category: "Kitchen"})

	categories, err := s.CategoryOptions("")
	if err != nil {
		t.Fatalf("category options: %v", err)
	}
	if len(categories) != 2 || categories[0] != "Furniture" || categories[1] != "Kitchen" {
		t.Errorf("categories = %v", categories)
	}

	shops, err := s.ShopOptions("ike")
	if err != nil {
		t.Fatalf("shop options: %v", err)
	}
	if len(shops) != 1 || shops[0] != "IKEA" {
		t.Errorf("narrowed shops = %v", shops)
	}
}

func TestSavePhotoIsOptimized(t *testing.T) {
	s := setupService(t)

	photo := largePhoto(t)
	item, err := s.SaveItem(model.Item{Name: "Rug", Category: "Decor", Photo: photo})
	if err != nil {
		t.Fatalf("save item: %v", err)
	}
	if item.Photo == photo {
		t.Error("photo should have been recompressed before persistence")
	}
	if item.Photo == "" {
		t.Error("photo should still be present")
	}
}

func TestSaveUndecodablePhotoKeptVerbatim(t *testing.T) {
	s := setupService(t)

	photo := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not an image"))
	item, err := s.SaveItem(model.Item{Name: "Rug", Category: "Decor", Photo: photo})
	if err != nil {
		t.Fatalf("save should not fail on undecodable photo: %v", err)
	}
	if item.Photo != photo {
		t.Error("undecodable photo must be retained unchanged")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s := setupService(t)

	s.SaveItem(model.Item{Name: "Lamp", Category: "Furniture", Price: 25})
	s.SaveItem(model.Item{Name: "Mug", Category: "Kitchen", Shop: "Habitat"})

	file, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(file.Items) != 2 {
		t.Fatalf("exported %d items, want 2", len(file.Items))
	}
	if file.ExportDate.IsZero() {
		t.Error("exportDate not set")
	}

	// Import into a fresh store: same items, new ids.
	dst := setupService(t)
	count, err := dst.Import(file)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if count != 2 {
		t.Errorf("imported = %d, want 2", count)
	}
	items, _ := dst.List(query.Filters{}, model.SortSpec{Field: "name", Direction: "asc"})
	if len(items) != 2 {
		t.Fatalf("expected 2 items after import, got %d", len(items))
	}
	if items[0].Name != "Lamp" || items[1].Name != "Mug" {
		t.Errorf("imported items = %+v", items)
	}
}

func TestImportIsAdditiveAndReassignsIDs(t *testing.T) {
	s := setupService(t)

	existing, _ := s.SaveItem(model.Item{Name: "Desk", Category: "Furniture"})

	file := &model.BackupFile{
		Items: []model.Item{
			{ID: existing.ID, Name: "Lamp", Category: "Furniture"},
			{ID: existing.ID, Name: "Mug", Category: "Kitchen"},
		},
		Settings:   model.DefaultSettings(),
		ExportDate: time.Now().UTC(),
	}
	count, err := s.Import(file)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if count != 2 {
		t.Errorf("imported = %d, want 2", count)
	}

	items, _ := s.List(query.Filters{}, model.SortSpec{Field: "date", Direction: "asc"})
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	seen := map[int64]bool{}
	for _, item := range items {
		if seen[item.ID] {
			t.Errorf("duplicate id %d after import", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestBulkCompressHonorsThreshold(t *testing.T) {
	s := setupService(t)

	// Force maximal quality: savings are defined as 0, so nothing may
	// be rewritten even though photos decode fine.
	if err := s.SaveSettings(model.Settings{
		Currency:         "£",
		DefaultSort:      model.SortSpec{Field: "date", Direction: "desc"},
		ImageCompression: model.ImageCompression{Quality: 1.0},
	}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	s.SaveItem(model.Item{Name: "Rug", Category: "Decor", Photo: largePhoto(t)})

	report, err := s.BulkCompress()
	if err != nil {
		t.Fatalf("bulk compress: %v", err)
	}
	if report.Scanned != 1 {
		t.Errorf("scanned = %d, want 1", report.Scanned)
	}
	if report.Compressed != 0 {
		t.Errorf("compressed = %d, want 0 at maximal quality", report.Compressed)
	}
}

func TestBulkCompressRewritesWhenWorthIt(t *testing.T) {
	s := setupService(t)

	// Save at maximal quality so the stored photo stays large, then
	// drop the quality and recompress.
	s.SaveSettings(model.Settings{
		Currency:         "£",
		DefaultSort:      model.SortSpec{Field: "date", Direction: "desc"},
		ImageCompression: model.ImageCompression{Quality: 1.0},
	})
	item, _ := s.SaveItem(model.Item{Name: "Rug", Category: "Decor", Photo: largePhoto(t)})

	s.SaveSettings(model.Settings{
		Currency:         "£",
		DefaultSort:      model.SortSpec{Field: "date", Direction: "desc"},
		ImageCompression: model.ImageCompression{Quality: 0.3},
	})

	report, err := s.BulkCompress()
	if err != nil {
		t.Fatalf("bulk compress: %v", err)
	}
	if report.Compressed != 1 {
		t.Fatalf("compressed = %d, want 1", report.Compressed)
	}
	if report.SavedBytes <= 0 {
		t.Errorf("saved bytes = %d, want > 0", report.SavedBytes)
	}

	got, _ := s.GetItem(item.ID)
	if len(got.Photo) >= len(item.Photo) {
		t.Errorf("photo did not shrink: %d -> %d", len(item.Photo), len(got.Photo))
	}
}

func TestSaveSettingsValidation(t *testing.T) {
	s := setupService(t)

	bad := []model.Settings{
		{Currency: "", DefaultSort: model.SortSpec{Field: "date", Direction: "desc"}, ImageCompression: model.ImageCompression{Quality: 0.7}},
		{Currency: "£", DefaultSort: model.SortSpec{Field: "bogus", Direction: "desc"}, ImageCompression: model.ImageCompression{Quality: 0.7}},
		{Currency: "£", DefaultSort: model.SortSpec{Field: "date", Direction: "sideways"}, ImageCompression: model.ImageCompression{Quality: 0.7}},
		{Currency: "£", DefaultSort: model.SortSpec{Field: "date", Direction: "desc"}, ImageCompression: model.ImageCompression{Quality: 0}},
		{Currency: "£", DefaultSort: model.SortSpec{Field: "date", Direction: "desc"}, ImageCompression: model.ImageCompression{Quality: 1.5}},
	}
	for i, settings := range bad {
		var verr *ValidationError
		if err := s.SaveSettings(settings); !errors.As(err, &verr) {
			t.Errorf("case %d: err = %v, want ValidationError", i, err)
		}
	}
}
