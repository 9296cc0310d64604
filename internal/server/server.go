package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/neststash/neststash/internal/assetcache"
	"github.com/neststash/neststash/internal/backup"
	"github.com/neststash/neststash/internal/config"
	"github.com/neststash/neststash/internal/handler"
	"github.com/neststash/neststash/internal/inventory"
	"github.com/neststash/neststash/internal/middleware"
	"github.com/neststash/neststash/internal/store"
	"github.com/neststash/neststash/internal/update"
	ws "github.com/neststash/neststash/internal/websocket"
)

type Server struct {
	db        *sql.DB
	hub       *ws.Hub
	itemH     *handler.ItemHandler
	settingsH *handler.SettingsHandler
	backupH   *handler.BackupHandler
	assetH    *handler.AssetHandler
	assets    *assetcache.Manager
	logger    *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) (*Server, error) {
	hub := ws.NewHub(logger.With("component", "websocket"))

	itemStore := store.NewItemStore(db)
	settingsStore := store.NewSettingsStore(db)
	assetStore := store.NewAssetStore(db)

	service := inventory.NewService(itemStore, settingsStore, cfg.MinSavingsPercent, logger.With("component", "inventory"))

	offsiteMgr := backup.NewManager(backup.S3Config{
		Endpoint:  cfg.Backup.Endpoint,
		Bucket:    cfg.Backup.Bucket,
		Region:    cfg.Backup.Region,
		AccessKey: cfg.Backup.AccessKey,
		SecretKey: cfg.Backup.SecretKey,
	}, func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type: "backup_status",
			Extra: map[string]any{
				"state":       string(s.State),
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	}, logger.With("component", "backup"))

	fetcher := assetcache.NewOriginFetcher(cfg.AssetOrigin)
	assetMgr, err := assetcache.NewManager(assetStore, settingsStore, fetcher, logger.With("component", "assetcache"))
	if err != nil {
		return nil, err
	}
	coordinator := update.NewCoordinator(assetMgr, settingsStore, logger.With("component", "update"))

	return &Server{
		db:        db,
		hub:       hub,
		itemH:     handler.NewItemHandler(service, hub, logger.With("component", "item")),
		settingsH: handler.NewSettingsHandler(service, hub, logger.With("component", "settings")),
		backupH:   handler.NewBackupHandler(service, offsiteMgr, cfg.Backup.Passphrase, hub, logger.With("component", "backup_handler")),
		assetH:    handler.NewAssetHandler(assetMgr, coordinator, hub, logger.With("component", "assets")),
		assets:    assetMgr,
		logger:    logger,
	}, nil
}

// SyncAssets installs the configured asset generation at startup.
func (s *Server) SyncAssets(ctx context.Context, version string, manifest []string) error {
	return s.assets.Sync(ctx, version, manifest)
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Item API routes
	mux.HandleFunc("GET /api/items", s.itemH.List)
	mux.HandleFunc("POST /api/items", s.itemH.Create)
	mux.HandleFunc("DELETE /api/items", s.itemH.Clear)
	mux.HandleFunc("GET /api/items/{id}", s.itemH.Get)
	mux.HandleFunc("PUT /api/items/{id}", s.itemH.Update)
	mux.HandleFunc("DELETE /api/items/{id}", s.itemH.Delete)
	mux.HandleFunc("POST /api/items/compress", s.itemH.BulkCompress)
	mux.HandleFunc("GET /api/categories", s.itemH.Categories)
	mux.HandleFunc("GET /api/shops", s.itemH.Shops)

	// Settings API routes
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings", s.settingsH.Update)

	// Backup API routes
	mux.HandleFunc("GET /api/export", s.backupH.Export)
	mux.HandleFunc("POST /api/import", s.backupH.Import)
	mux.HandleFunc("POST /api/backup/offsite", s.backupH.OffsiteBackup)
	mux.HandleFunc("GET /api/backup/status", s.backupH.OffsiteStatus)

	// Update coordination
	mux.HandleFunc("GET /app-version", s.assetH.AppVersion)
	mux.HandleFunc("GET /api/update", s.assetH.CheckUpdate)
	mux.HandleFunc("POST /api/update", s.assetH.Command)

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Everything else resolves through the asset cache
	mux.HandleFunc("GET /", s.assetH.Serve)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
