// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeRefresher struct {
	calls   atomic.Int32
	batches atomic.Int32
	err     error
}

func (f *fakeRefresher) RefreshStale(_ context.Context, batchLimit int) (int, error) {
	f.calls.Add(1)
	f.batches.Store(int32(batchLimit))
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

func TestJanitorSweepsOnInterval(t *testing.T) {
	refresher := &fakeRefresher{}
	svc := NewJanitorService(refresher, JanitorConfig{
		Interval:  10 * time.Millisecond,
		BatchSize: 50,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want deadline exceeded", err)
	}
	if refresher.calls.Load() < 2 {
		t.Errorf("RefreshStale called %d times, want at least 2", refresher.calls.Load())
	}
	if refresher.batches.Load() != 50 {
		t.Errorf("batch limit = %d, want 50", refresher.batches.Load())
	}
}

func TestJanitorSurvivesSweepErrors(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("store offline")}
	svc := NewJanitorService(refresher, JanitorConfig{
		Interval:  10 * time.Millisecond,
		BatchSize: 10,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
	// Errors do not stop the loop; subsequent ticks keep sweeping.
	if refresher.calls.Load() < 2 {
		t.Errorf("RefreshStale called %d times after errors, want at least 2", refresher.calls.Load())
	}
}

func TestJanitorRunsStoreGC(t *testing.T) {
	refresher := &fakeRefresher{}
	var gcRuns atomic.Int32
	svc := NewJanitorService(refresher, JanitorConfig{
		Interval:  10 * time.Millisecond,
		BatchSize: 10,
	}, zerolog.Nop()).WithStoreGC(func() error {
		gcRuns.Add(1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if gcRuns.Load() == 0 {
		t.Error("store GC hook never ran")
	}
}

func TestJanitorDefaultsAndName(t *testing.T) {
	svc := NewJanitorService(&fakeRefresher{}, JanitorConfig{}, zerolog.Nop())
	if svc.String() != "profile-janitor" {
		t.Errorf("String() = %q", svc.String())
	}

	// Zero-valued config falls back to defaults once serving; verify the
	// loop starts and stops cleanly.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop")
	}
}
