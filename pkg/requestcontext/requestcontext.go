// Package requestcontext carries request-scoped metadata (request ID, client
// metadata, admin subject, request time) through context.Context.
package requestcontext

import (
	"context"
	"time"
)

type contextKey int

const (
	keyRequestID contextKey = iota
	keyClientIP
	keyUserAgent
	keyTerminal
	keyAdminSubject
	keyTime
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID returns the correlation ID for the request, or "" when absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithClientMetadata stores the client IP and raw User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, clientIP)
	return context.WithValue(ctx, keyUserAgent, userAgent)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(keyClientIP).(string)
	return v
}

func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(keyUserAgent).(string)
	return v
}

// WithTerminal stores a coarse description of the merchant terminal
// (browser/os/platform) derived from the User-Agent.
func WithTerminal(ctx context.Context, terminal string) context.Context {
	return context.WithValue(ctx, keyTerminal, terminal)
}

func Terminal(ctx context.Context) string {
	v, _ := ctx.Value(keyTerminal).(string)
	return v
}

// WithAdminSubject records the subject of a verified admin token.
func WithAdminSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, keyAdminSubject, subject)
}

func AdminSubject(ctx context.Context) string {
	v, _ := ctx.Value(keyAdminSubject).(string)
	return v
}

// WithTime pins the request time so every layer observes the same instant.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, keyTime, t)
}

// Now returns the pinned request time, falling back to time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(keyTime).(time.Time); ok && !t.IsZero() {
		return t
	}
	return time.Now()
}
