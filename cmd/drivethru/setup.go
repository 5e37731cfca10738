package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"drivethru"
	"drivethru/events"
	"drivethru/menu"
	"drivethru/slack"
	"drivethru/storage"
)

func newS3Client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// loadCatalog reads the menu from S3 when configured, from disk otherwise.
func loadCatalog(ctx context.Context, cfg drivethru.MenuConfig) (*menu.Catalog, error) {
	format, err := menu.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	var src menu.Source = storage.NewFileMenuSource(cfg.Path)
	if cfg.UseS3() {
		client, err := newS3Client(ctx)
		if err != nil {
			return nil, err
		}
		src = storage.NewS3MenuSource(client, cfg.S3Bucket, cfg.S3Key)
		slog.Info("SETUP: loading menu from S3", "bucket", cfg.S3Bucket, "key", cfg.S3Key)
	} else {
		slog.Info("SETUP: loading menu from file", "path", cfg.Path)
	}

	catalog, err := menu.Load(ctx, src, format, cfg.Options()...)
	if err != nil {
		return nil, err
	}
	slog.Info("SETUP: menu loaded", "categories", len(catalog.AllCategories()), "items", catalog.ItemsCount())
	return catalog, nil
}

// snapshotStore returns the session's file store, mirrored to S3 when a
// bucket is configured.
func snapshotStore(ctx context.Context, cfg drivethru.OrderConfig, sess *storage.Session) (storage.SnapshotStore, error) {
	if cfg.SnapshotS3Bucket == "" {
		return sess.Snapshots, nil
	}
	client, err := newS3Client(ctx)
	if err != nil {
		return nil, err
	}
	mirror := storage.NewS3SnapshotStore(client, cfg.SnapshotS3Bucket, cfg.SnapshotS3Prefix, sess.ID)
	slog.Info("SETUP: mirroring snapshots to S3", "bucket", cfg.SnapshotS3Bucket, "key", mirror.Key())
	return storage.NewMultiSnapshotStore(sess.Snapshots, mirror), nil
}

type closer func() error

// notifiers builds the configured completion notifiers. httpClient carries
// the Slack webhook posts.
func notifiers(cfg drivethru.NotifyConfig, httpClient drivethru.HTTPClient) ([]drivethru.OrderNotifier, []closer, error) {
	var (
		out     []drivethru.OrderNotifier
		closers []closer
	)
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, pub)
		closers = append(closers, pub.Close)
		slog.Info("SETUP: publishing completions to NATS", "subject", cfg.NATSSubject)
	}
	if cfg.SlackWebhookURL != "" {
		out = append(out, drivethru.NewSlackNotifier(slack.NewClient(cfg.SlackWebhookURL, httpClient), cfg.SlackChannel))
		slog.Info("SETUP: posting completions to Slack", "channel", cfg.SlackChannel)
	}
	return out, closers, nil
}
