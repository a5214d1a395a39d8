package globals

import (
	"context"
)

var (
	// JwtSecret signs admin tokens. Set from config at startup; empty rejects every token.
	JwtSecret []byte
)

// Context keys
type ContextKey string

const RoleKey ContextKey = "role"
const UsernameKey ContextKey = "username"

var Ctx = context.Background()
