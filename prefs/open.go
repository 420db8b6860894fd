package prefs

import (
	"context"
	"fmt"
)

// Options selects and configures a backend for Open
type Options struct {
	Backend string
	Path    string
	Redis   RedisOptions
}

// Open creates the backend named by opts.Backend
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendSQLite, "":
		return NewSQLite(opts.Path)
	case BackendRedis:
		return NewRedis(ctx, opts.Redis)
	default:
		return nil, fmt.Errorf("unknown preference backend: %s", opts.Backend)
	}
}
