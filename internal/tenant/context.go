// Package tenant resolves the company a request belongs to and makes the
// company id available downstream through the request context.
package tenant

import (
	"context"
	"strings"
)

type contextKey string

const companyContextKey contextKey = "tenant.company"

// With stores the company identifier inside the context.
func With(ctx context.Context, companyID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, companyContextKey, companyID)
}

// From extracts the company identifier from the context if available.
func From(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	companyID, ok := ctx.Value(companyContextKey).(string)
	if !ok {
		return "", false
	}
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return "", false
	}
	return companyID, true
}

// PrefixKey namespaces a cache or rate-limit key per company.
func PrefixKey(companyID, key string) string {
	if companyID == "" {
		return key
	}
	return companyID + ":" + key
}
