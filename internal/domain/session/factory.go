package session

import (
	"strings"

	"lens-server-go/internal/platform/config"
	"lens-server-go/internal/platform/errors"
)

// NewStore builds the session store named by the configuration. Unknown and
// empty types fall back to the in-memory store.
func NewStore(cfg config.SessionConfig, window int) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "memory":
		return NewMemoryStore(window), nil
	case "redis":
		return NewRedisStore(cfg.Redis, window)
	default:
		return nil, errors.New(errors.KindConfig, "session.factory", "unknown session store type: "+cfg.Type)
	}
}
