// Package requestctx provides request-scoped values set by middleware.
package requestctx

import "context"

type contextKey struct{}

var conversationIDKey = &contextKey{}

// SetConversationID stores the conversation id in the context.
func SetConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationIDKey, id)
}

// ConversationID returns the conversation id from context, or "" if not set.
func ConversationID(ctx context.Context) string {
	v, _ := ctx.Value(conversationIDKey).(string)
	return v
}
