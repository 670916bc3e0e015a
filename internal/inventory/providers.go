package inventory

import (
	"github.com/tair/stockroom/internal/inventory/session"
	"github.com/tair/stockroom/internal/inventory/usecase/command"
	"github.com/tair/stockroom/internal/inventory/usecase/query"
)

// ProvideCommandSessions provides the session opener used by command handlers
func ProvideCommandSessions(m *session.Manager) command.SessionOpener {
	return m
}

// ProvideQuerySessions provides the session opener used by query handlers
func ProvideQuerySessions(m *session.Manager) query.SessionOpener {
	return m
}
