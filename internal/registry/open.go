package registry

import (
	"context"
	"errors"
	"strings"

	logx "bdaybot/pkg/logx"
)

// Store is the persistence port behind the registry. A Load after a Save must
// return exactly the saved set; a Load with no prior state returns an empty
// set, not an error.
type Store interface {
	Load(ctx context.Context) ([]int64, error)
	Save(ctx context.Context, ids []int64) error
	Close() error
}

// OpenStore initializes the configured store.
func OpenStore(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown registry driver: " + driver)
	}
}
