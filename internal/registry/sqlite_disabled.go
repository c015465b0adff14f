//go:build !sqlite
// +build !sqlite

package registry

import (
	"errors"

	logx "bdaybot/pkg/logx"
)

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	_ = cfg
	_ = log
	return nil, errors.New("sqlite registry not built: build with -tags sqlite")
}
