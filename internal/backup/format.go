// Package backup implements the JSON backup file format and optional
// encrypted off-site upload of backups to S3-compatible storage.
package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/neststash/neststash/internal/model"
)

// FormatError reports a malformed backup file. It is raised before any
// write occurs, so a bad file never partially imports.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid backup file: %s", e.Reason)
}

// Encode serializes a backup file.
func Encode(file model.BackupFile) ([]byte, error) {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return data, nil
}

// Parse validates and decodes a backup file. The items field must be
// present and an array; settings and exportDate are optional and fall
// back to defaults when absent.
func Parse(data []byte) (*model.BackupFile, error) {
	var raw struct {
		Items      json.RawMessage `json:"items"`
		Settings   *model.Settings `json:"settings"`
		ExportDate time.Time       `json:"exportDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FormatError{Reason: "not a JSON document"}
	}
	if len(raw.Items) == 0 || string(raw.Items) == "null" {
		return nil, &FormatError{Reason: "missing items array"}
	}

	var items []model.Item
	if err := json.Unmarshal(raw.Items, &items); err != nil {
		return nil, &FormatError{Reason: "items is not an array of items"}
	}

	file := &model.BackupFile{
		Items:      items,
		ExportDate: raw.ExportDate,
	}
	if raw.Settings != nil {
		file.Settings = *raw.Settings
	} else {
		file.Settings = model.DefaultSettings()
	}
	return file, nil
}
