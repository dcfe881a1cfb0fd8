// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSweeper struct {
	calls atomic.Int64
}

func (f *fakeSweeper) Sweep() int {
	f.calls.Add(1)
	return 3
}

type fakeCollector struct {
	calls atomic.Int64
	err   error
}

func (f *fakeCollector) RunGC(_ float64) error {
	f.calls.Add(1)
	return f.err
}

func TestMaintenanceServiceRunsRounds(t *testing.T) {
	sweeper := &fakeSweeper{}
	collector := &fakeCollector{}
	svc := NewMaintenanceService(sweeper, collector, 10*time.Millisecond, 0.5, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for sweeper.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("maintenance rounds never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if collector.calls.Load() == 0 {
		t.Error("storage GC never ran")
	}
}

func TestMaintenanceServiceToleratesGCErrors(t *testing.T) {
	sweeper := &fakeSweeper{}
	collector := &fakeCollector{err: errors.New("disk full")}
	svc := NewMaintenanceService(sweeper, collector, 5*time.Millisecond, 0.5, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// A failing GC must not stop the loop; Serve only returns when the
	// context ends.
	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want context.DeadlineExceeded", err)
	}
	if sweeper.calls.Load() < 2 {
		t.Errorf("sweeps = %d, want at least 2 despite GC errors", sweeper.calls.Load())
	}
}

func TestMaintenanceServiceNilDependencies(t *testing.T) {
	svc := NewMaintenanceService(nil, nil, 5*time.Millisecond, 0.5, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// Must not panic with nothing to maintain.
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestMaintenanceServiceDefaults(t *testing.T) {
	svc := NewMaintenanceService(nil, nil, 0, -1, zerolog.Nop())

	if svc.interval != 5*time.Minute {
		t.Errorf("interval = %v, want 5m default", svc.interval)
	}
	if svc.discardRatio != 0.5 {
		t.Errorf("discardRatio = %v, want 0.5 default", svc.discardRatio)
	}
}

func TestMaintenanceServiceString(t *testing.T) {
	svc := NewMaintenanceService(nil, nil, time.Minute, 0.5, zerolog.Nop())
	if got := svc.String(); got != "maintenance-service" {
		t.Errorf("String() = %s", got)
	}
}
