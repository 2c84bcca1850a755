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

	goredis "github.com/redis/go-redis/v9"

	"github.com/relab-tools/faultline/pkg/api"
	"github.com/relab-tools/faultline/pkg/blob"
	"github.com/relab-tools/faultline/pkg/store"
	"github.com/relab-tools/faultline/pkg/store/redis"
)

func main() {
	fmt.Println(`{"level":"info","msg":"system_started","component":"faultline-d"}`)

	config, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Printf(`{"level":"fatal","msg":"invalid_config","error":"%v"}`+"\n", err)
		os.Exit(1)
	}

	st, err := store.NewStore(config.DBPath)
	if err != nil {
		fmt.Printf(`{"level":"fatal","msg":"failed_to_init_store","error":"%v"}`+"\n", err)
		os.Exit(1)
	}
	fmt.Printf(`{"level":"info","msg":"store_initialized","path":"%s"}`+"\n", config.DBPath)

	server := api.NewServer(st, config.Addr)
	if config.TLSCert != "" {
		server.SetTLS(config.TLSCert, config.TLSKey)
	}

	if config.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: config.RedisAddr})
		server.SetResultCache(redis.NewResultCache(client, config.CacheTTL))
		fmt.Printf(`{"level":"info","msg":"result_cache_enabled","addr":"%s","ttl":"%s"}`+"\n", config.RedisAddr, config.CacheTTL)
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if config.ArchiveDir != "" {
		worker := store.NewArchiveWorker(st, blob.NewLocalBlobStore(config.ArchiveDir), store.ArchiveConfig{
			Enabled:       true,
			Retention:     config.Retention,
			BatchSize:     500,
			CheckInterval: time.Hour,
		})
		go worker.Run(workerCtx)
		fmt.Printf(`{"level":"info","msg":"archive_worker_started","dir":"%s","retention":"%s"}`+"\n", config.ArchiveDir, config.Retention)
	}

	go func() {
		if err := server.Start(); err != nil {
			fmt.Printf(`{"level":"fatal","msg":"server_failed","error":"%v"}`+"\n", err)
			os.Exit(1)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigs
	fmt.Printf(`{"level":"info","msg":"shutdown_initiated","signal":"%s"}`+"\n", sig)
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_stop_server","error":"%v"}`+"\n", err)
	}

	if err := st.Close(); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_close_store","error":"%v"}`+"\n", err)
	} else {
		fmt.Println(`{"level":"info","msg":"store_closed"}`)
	}

	fmt.Println(`{"level":"info","msg":"shutdown_complete"}`)
}
