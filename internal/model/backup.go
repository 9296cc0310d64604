package model

import "time"

// BackupFile is the on-disk backup/export format.
type BackupFile struct {
	Items      []Item    `json:"items"`
	Settings   Settings  `json:"settings"`
	ExportDate time.Time `json:"exportDate"`
}
