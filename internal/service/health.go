package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// HealthChecker probes the backend.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (bool, error)
}

// HealthMonitor gates widget visibility on the backend health endpoint. It
// checks once on start and then on a fixed schedule.
type HealthMonitor struct {
	checker  HealthChecker
	interval time.Duration
	cron     *cron.Cron

	mu       sync.RWMutex
	visible  bool
	onChange func(visible bool)
}

func NewHealthMonitor(checker HealthChecker, interval time.Duration) *HealthMonitor {
	return &HealthMonitor{
		checker:  checker,
		interval: interval,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		visible:  true,
	}
}

// OnChange registers a callback for visibility transitions.
func (m *HealthMonitor) OnChange(fn func(visible bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Start runs the initial check and schedules the periodic recheck.
func (m *HealthMonitor) Start(ctx context.Context) error {
	m.Check(ctx)

	if m.interval <= 0 {
		return nil
	}
	spec := fmt.Sprintf("@every %s", m.interval)
	if _, err := m.cron.AddFunc(spec, func() { m.Check(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule health check: %w", err)
	}
	m.cron.Start()
	log.Printf("INFO: health check scheduled %s", spec)
	return nil
}

// Stop stops the schedule and waits for a running check to finish.
func (m *HealthMonitor) Stop() {
	<-m.cron.Stop().Done()
}

// Check probes the backend once and records the result.
func (m *HealthMonitor) Check(ctx context.Context) bool {
	ok, err := m.checker.CheckHealth(ctx)
	if err != nil {
		log.Printf("WARN: health check failed: %v", err)
		ok = false
	}

	m.mu.Lock()
	changed := m.visible != ok
	m.visible = ok
	onChange := m.onChange
	m.mu.Unlock()

	if changed {
		log.Printf("INFO: widget visibility changed to %v", ok)
		if onChange != nil {
			onChange(ok)
		}
	}
	return ok
}

// Visible reports whether the widget should render.
func (m *HealthMonitor) Visible() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visible
}
