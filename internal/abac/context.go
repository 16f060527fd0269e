package abac

import "context"

type principalContextKey struct{}

type resourceContextKey struct{}

// ContextWithPrincipal stores the authenticated principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal placed by the auth
// middleware. ok is false when the request is unauthenticated.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// ContextWithResource stores the instance resolved by the gate so
// downstream handlers do not fetch the entity twice.
func ContextWithResource(ctx context.Context, res *ResourceInstance) context.Context {
	return context.WithValue(ctx, resourceContextKey{}, res)
}

// ResourceFromContext returns the gate-resolved instance, if any.
func ResourceFromContext(ctx context.Context) *ResourceInstance {
	res, _ := ctx.Value(resourceContextKey{}).(*ResourceInstance)
	return res
}
