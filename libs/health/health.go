// Package health serves the liveness and readiness probes. Liveness is
// unconditional; readiness follows a flag the process flips after its
// dependencies are up and back off again while draining for shutdown.
package health

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Manager holds the process readiness flag. Safe for concurrent use.
type Manager struct {
	ready atomic.Bool
}

func NewManager(initialReady bool) *Manager {
	m := &Manager{}
	m.ready.Store(initialReady)
	return m
}

// SetReady flips the readiness flag. Main sets it true once the pools
// are connected and false again when shutdown begins, so the load
// balancer stops routing before in-flight requests are drained.
func (m *Manager) SetReady(ready bool) {
	m.ready.Store(ready)
}

func (m *Manager) IsReady() bool {
	return m.ready.Load()
}

// LivenessHandler answers as long as the process can serve HTTP at all.
func LivenessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadinessHandler reports 503 until the manager is marked ready.
func ReadinessHandler(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.IsReady() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
