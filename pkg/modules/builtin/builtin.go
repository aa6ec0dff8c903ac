// Package builtin lists the native modules shipped with clever.
package builtin

import (
	"log/slog"

	"github.com/rhino1998/clever/pkg/modules"
	"github.com/rhino1998/clever/pkg/modules/db/sqlite3"
	"github.com/rhino1998/clever/pkg/modules/std/collection"
	"github.com/rhino1998/clever/pkg/modules/std/concurrent"
	"github.com/rhino1998/clever/pkg/modules/std/maths"
	"github.com/rhino1998/clever/pkg/modules/std/strs"
	"github.com/rhino1998/clever/pkg/modules/web/session"
)

// Modules returns fresh instances of every shipped module.
func Modules() []*modules.Module {
	return []*modules.Module{
		collection.Module(),
		strs.Module(),
		maths.Module(),
		concurrent.Module(),
		sqlite3.Module(),
		session.Module(),
	}
}

// NewManager returns a manager with every shipped module registered.
func NewManager(logger *slog.Logger, disabled ...string) (*modules.Manager, error) {
	m := modules.NewManager(logger, disabled...)
	if err := m.Register(Modules()...); err != nil {
		return nil, err
	}

	return m, nil
}
