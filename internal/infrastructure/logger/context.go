package logger

import (
	"context"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// WebhookIDKey is the context key for the webhook delivery id
	WebhookIDKey contextKey = "webhook_id"
)

// ContextWithRequestID attaches the request id to the context so query logs
// emitted further down the call chain can be correlated with the request
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// ContextWithWebhookID attaches the webhook delivery id to the context
func ContextWithWebhookID(ctx context.Context, webhookID string) context.Context {
	return context.WithValue(ctx, WebhookIDKey, webhookID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetWebhookID retrieves the webhook delivery id from context
func GetWebhookID(ctx context.Context) string {
	if webhookID, ok := ctx.Value(WebhookIDKey).(string); ok {
		return webhookID
	}
	return ""
}
