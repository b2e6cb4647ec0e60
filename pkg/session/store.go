package session

import (
	"fmt"

	"github.com/jmorrell-dev/sidekick/pkg/config"
	"github.com/jmorrell-dev/sidekick/pkg/types"
)

// Store is the persistence collaborator for sessions. Implementations must
// treat Load of an unknown ID as (nil, nil), not an error; hard I/O failures
// are errors and propagate to the caller.
type Store interface {
	Save(session *types.Session) error
	Load(sessionID string) (*types.Session, error)
	Delete(sessionID string) error
	ListSessionIDs() ([]string, error)
}

// OpenStore builds the store selected by the config: "json" (default) or
// "sqlite".
func OpenStore(cfg *config.Config) (Store, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	switch cfg.Storage {
	case "", "json":
		return NewFileStore(dir)
	case "sqlite":
		return NewSQLiteStore(dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
