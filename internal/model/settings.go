package model

// SortSpec names a sort field and direction. Field is one of
// name, category, shop, price, date; Direction is asc or desc.
type SortSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// ImageCompression holds the photo optimizer settings. Quality is the
// JPEG re-encode factor in (0, 1].
type ImageCompression struct {
	Quality float64 `json:"quality"`
}

// Settings is the single persisted settings document.
type Settings struct {
	Currency         string           `json:"currency"`
	DefaultSort      SortSpec         `json:"defaultSort"`
	ImageCompression ImageCompression `json:"imageCompression"`
}

// DefaultSettings returns the settings used before the user saves any.
func DefaultSettings() Settings {
	return Settings{
		Currency:         "£",
		DefaultSort:      SortSpec{Field: "date", Direction: "desc"},
		ImageCompression: ImageCompression{Quality: 0.7},
	}
}
