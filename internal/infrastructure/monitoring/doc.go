/*
Package monitoring provides metrics collection for shellgate.

# Overview

This package implements Prometheus-based metrics for the HTTP surface, the
terminal session registry, workspace trust decisions, command execution and
WebSocket streaming.

# Features

- HTTP request metrics (latency, throughput, size)
- Session lifecycle metrics (active, created by source, exits, launch failures)
- Output volume and dropped stream events
- Trust decisions and trust prompts
- Command call counts and durations
- Uptime

# Usage

	// Create metrics collector on its own registry
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Time operations
	timer := monitoring.NewTimer(metrics, "terminal.create")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
