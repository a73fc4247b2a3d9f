package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey   = "authenticated"
	KeyUserID = "user_id"

	localsKey = "USER_CONTEXT"
)
