package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"metrics-tags-app/internal/config"
	"metrics-tags-app/internal/naming"
	"metrics-tags-app/internal/repository"
	"metrics-tags-app/internal/resolver"
	"metrics-tags-app/internal/router"
	"metrics-tags-app/internal/util"
)

func LoggerInitialize(cfg config.Config) (util.ServiceLogger, error) {

	var webSlogger util.ServiceLogger

	util.SetLoggerPath(cfg.LogDir)
	util.CheckAndCreateLogFolder(cfg.LogDir)
	util.SetCommonLoggerAttributes(cfg.LogLevel)

	if err := webSlogger.Init(cfg.LogFile, false); err != nil {
		fmt.Println("Failed to initialize logger:", err)
		return util.ServiceLogger{}, err
	}

	webSlogger.LogEvent(util.LOG_LEVEL_INFO, "Service started")

	currentTime := time.Now().Format(time.RFC3339)

	fmt.Fprintf(os.Stderr, "\n%s: MetricsTagsApp started \n", currentTime)

	return webSlogger, nil

}

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := LoggerInitialize(cfg)
	if err != nil {
		fmt.Println("Error while initializing the logger..", err)
		return
	}

	tagStore := repository.NewSQLiteTagStore(cfg.DBPath)

	if err := tagStore.Init(); err != nil {
		log.Fatalf("Failed to initialize tag store: %v", err)
	}
	defer tagStore.Close()

	registry := naming.Default()
	tagsResolver := resolver.New(registry, tagStore)

	router.Run(cfg.ListenAddr, tagsResolver, &logger)
}
