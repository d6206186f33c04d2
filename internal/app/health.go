package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker answers /status. A pass means both stores the reminder
// loop depends on (user/credential rows, dispatch ledger) are reachable.
type HealthChecker struct {
	infra Infrastructure
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return &HealthChecker{
		infra: infra,
	}
}

func (h *HealthChecker) check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- named("postgres", h.infra.Postgres().Ping(ctx))
	}()

	go func() {
		errs <- named("redis", h.infra.Redis().Ping(ctx))
	}()

	return errors.Join(<-errs, <-errs)
}

func named(dependency string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", dependency, err)
}

func (h *HealthChecker) Handler(c *gin.Context) {
	if err := h.check(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "pass",
	})
}
