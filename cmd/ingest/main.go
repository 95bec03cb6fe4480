package main

import (
	"context"
	"log"
	"time"

	"metrics-tags-app/internal/config"
	"metrics-tags-app/internal/domain"
	"metrics-tags-app/internal/repository"
	"metrics-tags-app/internal/util"
)

const organization = "acme"

// metricSeed declares which tag keys a metric has been observed with.
type metricSeed struct {
	mri     string
	useCase string
	tagKeys []string
}

var seeds = []metricSeed{
	{"c:sessions/session@none", "sessions", []string{"environment", "release"}},
	{"s:sessions/error@none", "sessions", []string{"environment", "release"}},
	{"d:sessions/duration@second", "sessions", []string{"environment", "release"}},
	{"d:transactions/duration@millisecond", "transactions", []string{"environment", "release", "transaction", "http.status_code"}},
	{"c:custom/clicks@none", "custom", []string{"environment", "release", "transaction"}},
	{"g:custom/page_load@millisecond", "custom", []string{"environment", "release", "transaction"}},
}

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	util.CheckAndCreateLogFolder("../db")

	tagStore := repository.NewSQLiteTagStore(cfg.DBPath)
	if err := tagStore.Init(); err != nil {
		log.Fatalf("Failed to initialize tag store for ingestion: %v", err)
	}
	defer tagStore.Close()

	generateAndIngest(tagStore)
}

func generateAndIngest(s domain.TagStore) {

	endTime := time.Now()
	startTime := endTime.Add(-24 * time.Hour)

	log.Printf("Ingesting tag observations from %s to %s (past day)...", startTime.Format(time.RFC3339), endTime.Format(time.RFC3339))

	ctx := context.Background()

	for t := startTime; t.Before(endTime) || t.Equal(endTime); t = t.Add(time.Hour) {

		timestamp := t.Unix()

		for _, seed := range seeds {
			for _, tagKey := range seed.tagKeys {
				obs := domain.TagObservation{
					Organization: organization,
					MRI:          seed.mri,
					UseCase:      seed.useCase,
					ProjectID:    1,
					TagKey:       tagKey,
					Timestamp:    timestamp,
				}

				err := s.StoreObservation(ctx, obs)
				if err != nil {
					log.Printf("Error inserting observation for %s/%s at %d: %v", seed.mri, tagKey, timestamp, err)
					continue
				}
			}
		}
	}

	log.Println("Tag observation ingestion complete.")
}
