// Copyright 2024 Potter Framework Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akriventsev/catalog/framework/core"
)

// DebugConfig конфигурация для debugging utilities
type DebugConfig struct {
	EnablePprof bool   `toml:"enable_pprof"`
	PprofAddr   string `toml:"pprof_addr"`
}

// DefaultDebugConfig возвращает конфигурацию по умолчанию
func DefaultDebugConfig() DebugConfig {
	return DebugConfig{
		EnablePprof: false,
		PprofAddr:   "localhost:6060",
	}
}

// HealthCheck именованная проверка: репозитории, клиенты брокеров, FuncHealthCheck
type HealthCheck interface {
	core.Component
	core.HealthCheckable
}

// HealthCheckResult результат health check
type HealthCheckResult struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
}

// CheckResult результат отдельной проверки
type CheckResult struct {
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// DebugManager health/readiness handlers и pprof сервер
type DebugManager struct {
	config          DebugConfig
	pprofServer     *http.Server
	healthChecks    []HealthCheck
	readinessChecks []HealthCheck
	mu              sync.RWMutex
}

// NewDebugManager создает новый DebugManager
func NewDebugManager(config DebugConfig) *DebugManager {
	return &DebugManager{config: config}
}

// Start запускает pprof сервер, если он включен
func (dm *DebugManager) Start(ctx context.Context) error {
	if !dm.config.EnablePprof {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	dm.mu.Lock()
	dm.pprofServer = &http.Server{
		Addr:              dm.config.PprofAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	server := dm.pprofServer
	dm.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start pprof server: %w", err)
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// Name имя компонента
func (dm *DebugManager) Name() string {
	return "pprof"
}

// IsRunning запущен ли pprof сервер
func (dm *DebugManager) IsRunning() bool {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.pprofServer != nil
}

// Stop останавливает pprof сервер
func (dm *DebugManager) Stop(ctx context.Context) error {
	dm.mu.Lock()
	server := dm.pprofServer
	dm.pprofServer = nil
	dm.mu.Unlock()

	if server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// RegisterHealthCheck регистрирует health check
func (dm *DebugManager) RegisterHealthCheck(check HealthCheck) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.healthChecks = append(dm.healthChecks, check)
}

// RegisterReadinessCheck регистрирует readiness check
func (dm *DebugManager) RegisterReadinessCheck(check HealthCheck) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.readinessChecks = append(dm.readinessChecks, check)
}

// RunHealthChecks выполняет все health checks
func (dm *DebugManager) RunHealthChecks(ctx context.Context) HealthCheckResult {
	dm.mu.RLock()
	checks := append([]HealthCheck(nil), dm.healthChecks...)
	dm.mu.RUnlock()

	result := HealthCheckResult{
		Status:    "healthy",
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now().UTC(),
	}

	for _, check := range checks {
		start := time.Now()
		err := check.HealthCheck(ctx)

		entry := CheckResult{Status: "healthy", Duration: time.Since(start)}
		if err != nil {
			entry.Status = "unhealthy"
			entry.Message = err.Error()
			result.Status = "unhealthy"
		}
		result.Checks[check.Name()] = entry
	}
	return result
}

// HealthCheckHandler возвращает Gin handler для health check
func (dm *DebugManager) HealthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result := dm.RunHealthChecks(ctx)
		if result.Status != "healthy" {
			c.JSON(http.StatusServiceUnavailable, result)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// ReadinessCheckHandler возвращает Gin handler для readiness check
func (dm *DebugManager) ReadinessCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		dm.mu.RLock()
		checks := append([]HealthCheck(nil), dm.readinessChecks...)
		dm.mu.RUnlock()

		var failed []string
		for _, check := range checks {
			if err := check.HealthCheck(ctx); err != nil {
				failed = append(failed, check.Name())
			}
		}

		if len(failed) > 0 {
			sort.Strings(failed)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// FuncHealthCheck проверка на основе функции (redis ping, ...)
type FuncHealthCheck struct {
	name      string
	checkFunc func(ctx context.Context) error
}

// NewFuncHealthCheck создает новый FuncHealthCheck
func NewFuncHealthCheck(name string, checkFunc func(ctx context.Context) error) *FuncHealthCheck {
	return &FuncHealthCheck{name: name, checkFunc: checkFunc}
}

// Name возвращает имя проверки
func (h *FuncHealthCheck) Name() string {
	return h.name
}

// HealthCheck выполняет проверку
func (h *FuncHealthCheck) HealthCheck(ctx context.Context) error {
	if h.checkFunc == nil {
		return fmt.Errorf("check function is nil")
	}
	return h.checkFunc(ctx)
}
