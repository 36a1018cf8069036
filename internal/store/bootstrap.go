package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/fits/internal/dataset"
	"github.com/JonMunkholm/fits/internal/reconcile"
)

// LoadOrBuild loads the saved index. When nothing is saved and datasetPath
// is set, the dataset is reconciled, saved and returned instead.
func LoadOrBuild(ctx context.Context, s Store, datasetPath string, opts reconcile.Options) (*Snapshot, error) {
	snap, err := s.Load(ctx)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, ErrNotFound) || datasetPath == "" {
		return nil, err
	}
	slog.Info("no saved index, reconciling dataset", "dataset", datasetPath)
	return Build(ctx, s, datasetPath, opts)
}

// Build reconciles the raw dataset at datasetPath and saves the result,
// replacing anything saved before.
func Build(ctx context.Context, s Store, datasetPath string, opts reconcile.Options) (*Snapshot, error) {
	raw, err := dataset.Load(datasetPath)
	if err != nil {
		return nil, err
	}

	idx, report, err := reconcile.Reconcile(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", datasetPath, err)
	}

	if err := s.Save(ctx, idx, report); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	slog.Info("index saved",
		"entries", idx.Len(),
		"input_rows", report.InputRows,
		"fixed", report.Fixed,
		"ties", report.Ties,
	)
	return &Snapshot{Index: idx, Report: report, SavedAt: time.Now().UTC()}, nil
}
