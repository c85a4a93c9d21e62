package auth

import (
	"context"
	"crypto/subtle"
)

// Headers exchanged between the reports service and the gateway
const (
	ServiceKeyHeader = "X-Service-Key"
	OnBehalfOfHeader = "X-On-Behalf-Of"
)

// ValidServiceKey compares a presented service key against the configured one.
// An empty configured key never matches.
func ValidServiceKey(presented, configured string) bool {
	if configured == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}

type onBehalfOfKey struct{}

// WithOnBehalfOf records the end user a service call is made for
func WithOnBehalfOf(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, onBehalfOfKey{}, subject)
}

// OnBehalfOf returns the subject stored by WithOnBehalfOf, or ""
func OnBehalfOf(ctx context.Context) string {
	subject, _ := ctx.Value(onBehalfOfKey{}).(string)
	return subject
}
