package auth

import (
	"context"
)

type contextKey string

const (
	SellerIDKey contextKey = "seller_id"
	TokenJTIKey contextKey = "token_jti"
)

// WithSeller stores the authenticated seller on the context
func WithSeller(ctx context.Context, claims *SellerClaims) context.Context {
	ctx = context.WithValue(ctx, SellerIDKey, claims.Subject)
	if claims.ID != "" {
		ctx = context.WithValue(ctx, TokenJTIKey, claims.ID)
	}
	return ctx
}

// SellerID returns the authenticated seller, or false when the request is anonymous
func SellerID(ctx context.Context) (string, bool) {
	sellerID, ok := ctx.Value(SellerIDKey).(string)
	return sellerID, ok && sellerID != ""
}
