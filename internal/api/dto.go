package api

import (
	"github.com/starford/guidsync/internal/history"
	"github.com/starford/guidsync/internal/index"
	"github.com/starford/guidsync/internal/models"
)

// DiffItem is one asset whose GUIDs diverge between the trees.
type DiffItem struct {
	Path     string      `json:"path"`
	SubGuid  models.Guid `json:"sub_guid"`
	MainGuid models.Guid `json:"main_guid"`
}

// ScanResponse is the GET /scan payload.
type ScanResponse struct {
	MainRoot      string                `json:"main_root"`
	SubRoot       string                `json:"subordinate_root"`
	Differences   []DiffItem            `json:"differences"`
	AlreadySynced int                   `json:"already_synced"`
	Skipped       []models.SkippedAsset `json:"skipped"`
	MainStats     index.Stats           `json:"main_stats"`
	SubStats      index.Stats           `json:"subordinate_stats"`
	DurationMS    int64                 `json:"duration_ms"`
}

// HistoryResponse wraps the recorded scan history.
type HistoryResponse struct {
	Scans []history.Scan `json:"scans"`
}
