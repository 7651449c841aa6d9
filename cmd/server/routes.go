// Package main provides the Messenger bot server entry point.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/huahelper/hua-messengerbot-go/internal/storage"
	"github.com/huahelper/hua-messengerbot-go/internal/warmup"
	"github.com/huahelper/hua-messengerbot-go/internal/webhook"
)

type routeDeps struct {
	webhook   *webhook.Handler
	db        *storage.DB
	readiness *warmup.ReadinessState
	registry  *prometheus.Registry
	auth      gin.HandlerFunc
}

// setupRoutes configures all HTTP routes.
func setupRoutes(router *gin.Engine, deps routeDeps) {
	rootHandler := func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "https://github.com/huahelper/hua-messengerbot-go")
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Liveness probe. Never checks dependencies, only that the process
	// answers.
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe: the database must answer and the first warmup
	// must have landed faculty data (or timed out).
	readyHandler := func(c *gin.Context) {
		if err := deps.db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		status := deps.readiness.Status()
		if !status.Ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":          "not ready",
				"reason":          status.Reason,
				"elapsed_seconds": status.ElapsedSeconds,
				"timeout_seconds": status.TimeoutSeconds,
			})
			return
		}

		counts, err := deps.db.CountAll(c.Request.Context())
		if err != nil {
			counts = nil
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"cache":    counts,
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// Messenger webhook: GET is the subscription handshake, POST
	// carries the events.
	router.GET("/webhook", deps.webhook.Verify)
	router.POST("/webhook", deps.webhook.Handle)

	router.GET("/metrics", deps.auth, gin.WrapH(promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{})))
}
