// Package busctx carries per-call bus options in a context.
package busctx

import "context"

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
	ctxIndexDeviceID
)

// IsVerbose reports whether bus handles should dump the traffic they send.
func IsVerbose(ctx context.Context) bool {
	val := ctx.Value(ctxIndexVerbose)
	if val == nil {
		return false
	}
	return val.(bool)
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// DeviceID returns the index of the USB adapter selected for this call, if
// more than one is plugged in.
func DeviceID(ctx context.Context) (int, bool) {
	val, ok := ctx.Value(ctxIndexDeviceID).(int)
	return val, ok
}

func SetDeviceID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, ctxIndexDeviceID, id)
}
