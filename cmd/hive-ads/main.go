package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hiveio/hive-ads/src/config"
	"github.com/hiveio/hive-ads/src/data"
	"github.com/hiveio/hive-ads/src/indexer"
	"github.com/hiveio/hive-ads/src/nativead"
	"github.com/hiveio/hive-ads/src/notify"
	"github.com/hiveio/hive-ads/src/types"
	"github.com/hiveio/hive-ads/src/webserver"
)

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	if err := db.AutoMigrate(
		&types.Community{}, &types.Account{}, &types.Post{},
		&types.Ad{}, &types.AdState{}, &types.AdsSettings{},
		&types.Notification{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := data.MustRedis(cfg.RedisURL)
	defer rdb.Close()

	engine := nativead.NewEngine(data.NewAds(db), data.NewCampaigns(db), data.NewSettings(db))
	reconciler := nativead.NewReconciler(engine, data.NewResolver(db), notify.NewWriter(db, rdb))
	proc := indexer.New(engine, reconciler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := indexer.NewStreamReader(rdb, proc).Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("indexer: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: webserver.New(db),
	}

	go func() {
		log.Printf("ads api listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
