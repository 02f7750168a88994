// Command vestige-engine wires the store, embedder/reranker, and cognitive
// engine together and runs it as a long-lived process. The RPC/tool
// transport that would expose the engine's operations to external agents
// sits in front of this and is out of scope here; this binary only proves
// out the wiring and lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/zeroaltitude/vestige/internal/backup"
	"github.com/zeroaltitude/vestige/internal/config"
	"github.com/zeroaltitude/vestige/internal/embedder"
	"github.com/zeroaltitude/vestige/internal/engine"
	"github.com/zeroaltitude/vestige/internal/events"
	"github.com/zeroaltitude/vestige/internal/storage/sqlite"
)

var (
	configPath = flag.String("config", "", "Path to config override file (optional, uses env vars by default)")
	backupDir  = flag.String("backup-dir", "", "Enable automated backups to this directory")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	dbPath := filepath.Join(cfg.DataDir, "vestige.db")

	store, err := sqlite.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	hashEmbed := embedder.NewHashEmbedder(cfg.EmbeddingDim)
	embed := embedder.NewProtectedEmbedder(hashEmbed, embedder.DefaultBreakerConfig)
	rerank := embedder.NewProtectedReranker(embedder.NewHashReranker(hashEmbed), embedder.DefaultBreakerConfig)

	sink := events.NewBroadcaster()
	eng := engine.New(store, embed, rerank, sink, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	log.Printf("vestige-engine started: data_dir=%s", cfg.DataDir)

	var backupSvc *backup.Service
	if *backupDir != "" {
		backupSvc, err = backup.New(eng.Backup, eng.Restore, nil, backup.Config{BackupDir: *backupDir})
		if err != nil {
			log.Fatalf("Failed to create backup service: %v", err)
		}
		go func() {
			if bgErr := backupSvc.Start(ctx); bgErr != nil && bgErr != context.Canceled {
				log.Printf("Backup service stopped: %v", bgErr)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down vestige-engine...")
	if backupSvc != nil {
		_ = backupSvc.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := eng.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: engine shutdown error: %v", err)
	}
}
