package backup

import (
	"errors"
	"testing"
	"time"

	"github.com/neststash/neststash/internal/model"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	file := model.BackupFile{
		Items: []model.Item{
			{ID: 1, Name: "Lamp", Category: "Furniture", Price: 25, DateAdded: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
			{ID: 2, Name: "Mug", Category: "Kitchen", Shop: "Habitat", DateAdded: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)},
		},
		Settings:   model.DefaultSettings(),
		ExportDate: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}

	data, err := Encode(file)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(parsed.Items))
	}
	if parsed.Items[0].Name != "Lamp" || parsed.Items[1].Shop != "Habitat" {
		t.Errorf("items did not round-trip: %+v", parsed.Items)
	}
	if !parsed.ExportDate.Equal(file.ExportDate) {
		t.Errorf("exportDate = %v, want %v", parsed.ExportDate, file.ExportDate)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "{{{"},
		{"missing items", `{"settings": {}}`},
		{"null items", `{"items": null}`},
		{"items not array", `{"items": "nope"}`},
		{"items wrong element type", `{"items": [42]}`},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.data))
		if err == nil {
			t.Errorf("%s: expected format error", tc.name)
			continue
		}
		var formatErr *FormatError
		if !errors.As(err, &formatErr) {
			t.Errorf("%s: err = %v, want FormatError", tc.name, err)
		}
	}
}

func TestParseDefaultsSettings(t *testing.T) {
	parsed, err := Parse([]byte(`{"items": []}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Settings != model.DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", parsed.Settings)
	}
}
