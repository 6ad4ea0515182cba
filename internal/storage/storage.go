package storage

import (
	"log"
	"time"

	"github.com/alexkarev/imagevault/internal/storage/miniostorage"
	"github.com/wb-go/wbf/config"
)

func NewBlobStorage(cfg *config.Config, delay time.Duration) *miniostorage.MinioBlobStorage {
	success := false
	var client *miniostorage.MinioBlobStorage
	var err error

	for !success {
		log.Println("Connecting to blob storage...")
		client, err = miniostorage.NewMinioClient(cfg)
		if err != nil {
			log.Printf("Failed to init connection to blob storage: %v\nNext retry in %v...", err, delay)
			time.Sleep(delay)
			continue
		}
		log.Println("Successfully connected blob storage!")
		success = true
	}

	return client
}
