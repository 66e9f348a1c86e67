package userctx

import "context"

// Context key type
type contextKey string

const flowIDKey contextKey = "flow_id"

// SetFlowID adds the flow ID to the context
func SetFlowID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, flowIDKey, id)
}

// GetFlowID retrieves the flow ID from the context
func GetFlowID(ctx context.Context) string {
	if flowID := ctx.Value(flowIDKey); flowID != nil {
		if id, ok := flowID.(string); ok {
			return id
		}
	}
	return ""
}
