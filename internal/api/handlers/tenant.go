package handlers

import "context"

type tenantKey struct{}

// WithCompanyID stores the authenticated tenant on ctx.
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, companyID)
}

// CompanyID returns the tenant set by the auth middleware, or "".
func CompanyID(ctx context.Context) string {
	id, _ := ctx.Value(tenantKey{}).(string)
	return id
}
