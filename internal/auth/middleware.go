package auth

import (
	"strings"

	"github.com/alexkarev/imagevault/internal/model"
	"github.com/wb-go/wbf/ginext"
)

// CallerKey is where the verified identity lives in the request context.
// Handlers read it once and pass it to the service layer as an explicit
// argument - core operations never reach into the context themselves.
const CallerKey = "caller_identity"

// Require wraps a handler with bearer-token verification. Missing header
// gives 401, a bad token gives 403, matching the usual bearer semantics.
func Require(secret string, next func(*ginext.Context)) func(*ginext.Context) {
	return func(ctx *ginext.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			ctx.JSON(401, map[string]string{"error": "no token provided"})
			return
		}

		identity, err := ParseIdentity(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			ctx.JSON(403, map[string]string{"error": ErrInvalidToken.Error()})
			return
		}

		ctx.Set(CallerKey, identity)
		next(ctx)
	}
}

// CallerFromGin extracts the identity Require stored on the request.
func CallerFromGin(ctx *ginext.Context) model.CallerIdentity {
	if v, ok := ctx.Get(CallerKey); ok {
		if identity, ok := v.(model.CallerIdentity); ok {
			return identity
		}
	}
	return model.CallerIdentity{}
}
