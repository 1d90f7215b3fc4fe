package launch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// DefaultSource is the CSV path used when no source is configured.
const DefaultSource = "spacex_launch_dash.csv"

// SourceConfig describes where the dataset is loaded from.
type SourceConfig struct {
	// Source is a file path, an http(s) URL, or a postgres:// DSN.
	Source string `yaml:"source"`
	// FetchTimeout bounds remote fetches.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	// SnapshotDir, when set, keeps copies of fetched CSVs for fallback.
	SnapshotDir      string `yaml:"snapshot_dir"`
	SnapshotMaxFiles int    `yaml:"snapshot_max_files"`
}

// Load reads the dataset once. Any error means the process cannot serve.
func Load(ctx context.Context, cfg SourceConfig, logger *slog.Logger) (*Dataset, error) {
	source := cfg.Source
	if source == "" {
		source = DefaultSource
	}

	var (
		records []Record
		err     error
	)
	switch {
	case IsPostgresSource(source):
		records, err = loadPostgres(ctx, source)
		source = redactDSN(source)
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		records, err = loadRemote(ctx, source, cfg, logger)
	default:
		records, err = loadFile(source, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("loading launch data from %s: %w", source, err)
	}

	ds, err := NewDataset(records, source)
	if err != nil {
		return nil, fmt.Errorf("loading launch data from %s: %w", source, err)
	}

	logger.Info("loaded launch dataset",
		"source", ds.Source,
		"records", ds.Len(),
		"sites", len(ds.Sites()),
		"payload_min_kg", ds.Payload().Min,
		"payload_max_kg", ds.Payload().Max,
	)
	return ds, nil
}

func loadFile(path string, logger *slog.Logger) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, logger)
}

func loadRemote(ctx context.Context, url string, cfg SourceConfig, logger *slog.Logger) ([]Record, error) {
	var snaps *Snapshots
	if cfg.SnapshotDir != "" {
		snaps = NewSnapshots(cfg.SnapshotDir, cfg.SnapshotMaxFiles)
	}

	data, fetchErr := NewFetcher(url, cfg.FetchTimeout, logger).Fetch(ctx)
	if fetchErr == nil {
		records, err := Parse(bytes.NewReader(data), logger)
		if err != nil {
			return nil, err
		}
		if snaps != nil {
			if err := snaps.Write(data, time.Now()); err != nil {
				logger.Warn("failed to write launch snapshot", "dir", snaps.Dir(), "error", err)
			}
		}
		return records, nil
	}

	if snaps == nil {
		return nil, fetchErr
	}

	logger.Warn("launch data fetch failed, falling back to snapshot", "url", url, "error", fetchErr)
	data, ts, err := snaps.LoadLatest()
	if err != nil {
		return nil, errors.Join(fetchErr, err)
	}
	logger.Info("using launch snapshot", "dir", snaps.Dir(), "snapshot_at", ts.Format(time.RFC3339))
	return Parse(bytes.NewReader(data), logger)
}

func loadPostgres(ctx context.Context, dsn string) ([]Record, error) {
	store, err := OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(ctx)
}

// redactDSN hides the password of a connection URL for logs and metadata.
func redactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":***@" + host
}
