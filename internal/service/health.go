package service

import (
	"context"
	"time"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthReport struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	Version        string `json:"version"`
	BuildTime      string `json:"build_time"`
	StoreDriver    string `json:"store_driver"`
	StoreReachable bool   `json:"store_reachable"`
	Detail         string `json:"detail,omitempty"`
}

type HealthService struct {
	store     Pinger
	service   string
	version   string
	buildTime string
	driver    string
	timeout   time.Duration
}

func NewHealthService(store Pinger, service, version, buildTime, driver string) *HealthService {
	return &HealthService{
		store:     store,
		service:   service,
		version:   version,
		buildTime: buildTime,
		driver:    driver,
		timeout:   2 * time.Second,
	}
}

func (h *HealthService) Check(ctx context.Context) HealthReport {
	rep := HealthReport{
		Status:         StatusHealthy,
		Service:        h.service,
		Version:        h.version,
		BuildTime:      h.buildTime,
		StoreDriver:    h.driver,
		StoreReachable: true,
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		rep.Status = StatusDegraded
		rep.StoreReachable = false
		rep.Detail = err.Error()
	}
	return rep
}
