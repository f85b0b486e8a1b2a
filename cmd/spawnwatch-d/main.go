package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/spawnwatch/spawnwatch/pkg/api"
	"github.com/spawnwatch/spawnwatch/pkg/backup"
	"github.com/spawnwatch/spawnwatch/pkg/catalog"
	"github.com/spawnwatch/spawnwatch/pkg/engine"
	"github.com/spawnwatch/spawnwatch/pkg/notify"
	"github.com/spawnwatch/spawnwatch/pkg/prefs"
	"github.com/spawnwatch/spawnwatch/pkg/sched"
	"github.com/spawnwatch/spawnwatch/pkg/store"
	redisstore "github.com/spawnwatch/spawnwatch/pkg/store/redis"
)

func main() {
	fmt.Println(`{"level":"info","msg":"system_started","component":"spawnwatch-d"}`)

	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Printf(`{"level":"fatal","msg":"invalid_config","error":"%v"}`+"\n", err)
		os.Exit(1)
	}

	// Backend selection: redis for shared profiles, sqlite otherwise. A
	// failed sqlite open degrades to the in-memory store so the board
	// still works, just without persistence.
	var kv store.KV
	var closeStore func() error
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		kv = redisstore.NewKV(client)
		closeStore = client.Close
		fmt.Printf(`{"level":"info","msg":"store_initialized","backend":"redis","addr":"%s"}`+"\n", cfg.RedisAddr)
	} else {
		st, err := store.NewStore(cfg.DBPath)
		if err != nil {
			fmt.Printf(`{"level":"error","msg":"sqlite_unavailable_running_in_memory","error":"%v"}`+"\n", err)
			kv = store.NewMemory()
		} else {
			kv = st
			closeStore = st.Close
			fmt.Printf(`{"level":"info","msg":"store_initialized","backend":"sqlite","path":"%s"}`+"\n", cfg.DBPath)
		}
	}

	seed := catalog.DefaultSeed()
	if cfg.SeedPath != "" {
		loaded, err := catalog.LoadSeedFile(cfg.SeedPath)
		if err != nil {
			fmt.Printf(`{"level":"fatal","msg":"failed_to_load_seed","path":"%s","error":"%v"}`+"\n", cfg.SeedPath, err)
			os.Exit(1)
		}
		seed = loaded
	}

	cat := catalog.NewStore(kv, seed)
	prf := prefs.NewStore(kv)

	scheduler := sched.New(sched.SystemClock{})

	feed := notify.NewFeed(100)
	sink := engine.MeteredSink{Next: notify.Gate{
		Primary:  notify.Multi{feed, notify.LogSink{}},
		Fallback: notify.LogSink{},
		Enabled:  prf.NotificationsEnabled,
	}}
	notifier := notify.NewService(scheduler, sink)

	board := engine.NewRefresher(cat, prf, kv, scheduler)
	board.Start()
	fmt.Printf(`{"level":"info","msg":"board_hydrated","events":%d,"version":%d}`+"\n", len(cat.List()), cat.Version())

	// Restore watchers for followed events across restarts.
	if prf.NotificationsEnabled() {
		for _, id := range prf.Followed() {
			watchEvent(notifier, cat, id)
		}
	}

	var backupCron *cron.Cron
	if cfg.BackupDir != "" {
		archive := backup.NewArchive(cfg.BackupDir, cfg.BackupKeep)
		backupCron = cron.New()
		_, err := backupCron.AddFunc(cfg.BackupCron, func() {
			snap := cat.ExportSnapshot()
			if snap == nil {
				fmt.Println(`{"level":"error","msg":"backup_skipped_export_failed"}`)
				return
			}
			path, err := archive.Write(snap)
			if err != nil {
				fmt.Printf(`{"level":"error","msg":"backup_failed","error":"%v"}`+"\n", err)
				return
			}
			fmt.Printf(`{"level":"info","msg":"backup_written","path":"%s"}`+"\n", path)
		})
		if err != nil {
			fmt.Printf(`{"level":"fatal","msg":"invalid_backup_cron","spec":"%s","error":"%v"}`+"\n", cfg.BackupCron, err)
			os.Exit(1)
		}
		backupCron.Start()
	}

	srv := api.NewServer(cat, prf, board, notifier, feed, kv, scheduler.Clock(), api.Config{
		Addr:        cfg.Addr,
		AdminSecret: cfg.AdminSecret,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		fmt.Printf(`{"level":"info","msg":"shutdown_initiated","signal":"%s"}`+"\n", sig)
	case err := <-serverErr:
		fmt.Printf(`{"level":"error","msg":"server_failed","error":"%v"}`+"\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_stop_server","error":"%v"}`+"\n", err)
	}
	if backupCron != nil {
		backupCron.Stop()
	}
	notifier.CancelAll()
	scheduler.CancelAll()
	if closeStore != nil {
		if err := closeStore(); err != nil {
			fmt.Printf(`{"level":"error","msg":"failed_to_close_store","error":"%v"}`+"\n", err)
		} else {
			fmt.Println(`{"level":"info","msg":"store_closed"}`)
		}
	}

	fmt.Println(`{"level":"info","msg":"shutdown_complete"}`)
}

// watchEvent registers a lead-window watcher that re-reads the event on
// every check, matching the API's follow behavior.
func watchEvent(notifier *notify.Service, cat *catalog.Store, id string) {
	ev, ok := cat.Get(id)
	if !ok {
		return
	}
	notifier.Schedule(id, ev.Name, func(now time.Time) []time.Time {
		cur, ok := cat.Get(id)
		if !ok {
			return nil
		}
		return cur.Occurrences(now)
	})
}
