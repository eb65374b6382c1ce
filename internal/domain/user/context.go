package user

import "context"

type permissionContextKey struct{}

// WithPermissionContext stores p in ctx.
func WithPermissionContext(ctx context.Context, p PermissionContext) context.Context {
	return context.WithValue(ctx, permissionContextKey{}, p)
}

// FromContext returns the PermissionContext stored by WithPermissionContext.
func FromContext(ctx context.Context) (PermissionContext, error) {
	p, ok := ctx.Value(permissionContextKey{}).(PermissionContext)
	if !ok {
		return PermissionContext{}, ErrPermissionContextAbsent
	}
	return p, nil
}
