package httpmiddleware

import (
	"context"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const sessionIDKey = "sid"

type sessionKey struct{}

// SessionIDFromContext returns the cart session id set by Session.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// WithSessionID returns a context carrying the session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// Session ensures every request carries a cart session id stored in the
// signed cookie name. A missing or undecodable cookie starts a new session.
func Session(store sessions.Store, name string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			// Get returns a fresh session alongside a decode error.
			sess, err := store.Get(r, name)
			if err != nil {
				zctx.From(ctx).Debug("Discarding session cookie", zap.Error(err))
			}

			id, _ := sess.Values[sessionIDKey].(string)
			if id == "" {
				id = uuid.NewString()
				sess.Values[sessionIDKey] = id
				if err := sess.Save(r, w); err != nil {
					zctx.From(ctx).Error("Save session", zap.Error(err))
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
			}

			ctx = zctx.With(WithSessionID(ctx, id), zap.String("session_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
