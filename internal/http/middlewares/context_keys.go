package middlewares

// gin context keys shared across middleware and handlers.
const (
	CtxUserID    = "auth.userID"
	CtxRequestID = "request_id"
)
