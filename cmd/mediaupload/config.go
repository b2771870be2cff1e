package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bitrise-io/go-mediaupload/media"
	"github.com/bitrise-io/go-mediaupload/node"
	"github.com/bitrise-io/go-mediaupload/stepconf"
	"github.com/bitrise-io/go-mediaupload/upload"
	"github.com/bitrise-io/go-utils/v2/log"
)

type uploadEnv struct {
	ChunkSize      int64         `env:"MEDIAUPLOAD_CHUNK_SIZE"`
	RequestTimeout time.Duration `env:"MEDIAUPLOAD_REQUEST_TIMEOUT"`
	RetryMax       int           `env:"MEDIAUPLOAD_RETRY_MAX"`
	PollInterval   time.Duration `env:"MEDIAUPLOAD_POLL_INTERVAL"`
	MaxPolls       int           `env:"MEDIAUPLOAD_MAX_POLLS"`
}

func (e uploadEnv) config() upload.Config {
	return upload.Config{
		ChunkSize:      e.ChunkSize,
		RequestTimeout: e.RequestTimeout,
		RetryMax:       e.RetryMax,
		PollInterval:   e.PollInterval,
		MaxPolls:       e.MaxPolls,
	}
}

type storeEnv struct {
	Bucket          string          `env:"MEDIA_S3_BUCKET"`
	Region          string          `env:"MEDIA_S3_REGION"`
	Prefix          string          `env:"MEDIA_S3_PREFIX"`
	Endpoint        string          `env:"MEDIA_S3_ENDPOINT"`
	AccessKeyID     string          `env:"MEDIA_S3_ACCESS_KEY_ID"`
	SecretAccessKey stepconf.Secret `env:"MEDIA_S3_SECRET_ACCESS_KEY"`
}

// store returns nil when no bucket is configured.
func (e storeEnv) store(ctx context.Context, logger log.Logger) (media.Store, error) {
	if e.Bucket == "" {
		return nil, nil
	}
	store, err := media.NewS3Store(ctx, media.S3StoreParams{
		Region:          e.Region,
		Bucket:          e.Bucket,
		Prefix:          e.Prefix,
		Endpoint:        e.Endpoint,
		AccessKeyID:     e.AccessKeyID,
		SecretAccessKey: string(e.SecretAccessKey),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create binary data store: %w", err)
	}
	return store, nil
}

func parseUploadEnv(debug bool) (upload.Config, error) {
	var e uploadEnv
	if err := stepconf.Parse(&e); err != nil {
		return upload.Config{}, err
	}
	if debug {
		stepconf.Print(e)
	}
	return e.config(), nil
}

func parseStoreEnv(ctx context.Context, debug bool, logger log.Logger) (media.Store, error) {
	var e storeEnv
	if err := stepconf.Parse(&e); err != nil {
		return nil, err
	}
	if debug && e.Bucket != "" {
		stepconf.Print(e)
	}
	return e.store(ctx, logger)
}

func parseComponentCredentials() (node.ComponentCredentials, error) {
	var credentials node.ComponentCredentials
	if err := stepconf.Parse(&credentials); err != nil {
		return node.ComponentCredentials{}, err
	}
	if credentials.ComponentDID == "" {
		credentials.ComponentDID = node.MediaKitDID
	}
	credentials.ComponentDID = node.ComponentDID(credentials.ComponentDID)
	return credentials, nil
}

func parseTwitterCredentials() (node.TwitterCredentials, error) {
	var credentials node.TwitterCredentials
	if err := stepconf.Parse(&credentials); err != nil {
		return node.TwitterCredentials{}, err
	}
	return credentials, nil
}
