package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	// Not-found is an expected outcome, not a store failure.
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}
	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyDBErr(err error) string {
	if mongo.IsDuplicateKeyError(err) {
		return "duplicate_key"
	}
	if mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if mongo.IsNetworkError(err) {
		return "connection"
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		return "write"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "unknown"
	}
}
