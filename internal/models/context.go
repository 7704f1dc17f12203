package models

import "context"

type operationContextKey struct{}

// OperationContext identifies the operation that produced a journal write.
type OperationContext struct {
	Seq  uint64
	Kind string
}

// WithOperationContext attaches the current operation to a context.
func WithOperationContext(ctx context.Context, oc OperationContext) context.Context {
	return context.WithValue(ctx, operationContextKey{}, oc)
}

// GetOperationContext retrieves the current operation from context.
func GetOperationContext(ctx context.Context) (OperationContext, bool) {
	oc, ok := ctx.Value(operationContextKey{}).(OperationContext)
	return oc, ok
}
