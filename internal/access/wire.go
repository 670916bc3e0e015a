//go:build wireinject
// +build wireinject

package access

import (
	"time"

	"github.com/google/wire"

	"github.com/tair/stockroom/internal/access/delivery/http"
	"github.com/tair/stockroom/internal/access/domain"
	"github.com/tair/stockroom/internal/access/usecase/command"
	"github.com/tair/stockroom/internal/access/usecase/query"
	"github.com/tair/stockroom/pkg/auth"
)

// Wire sets
var CommandHandlerSet = wire.NewSet(
	wire.Bind(new(command.TokenIssuer), new(*auth.TokenManager)),
	command.NewSignupAdminHandler,
	command.NewLoginUserHandler,
	command.NewLogoutUserHandler,
	command.NewAddEmployeeHandler,
	command.NewRemoveEmployeeHandler,
)

var QueryHandlerSet = wire.NewSet(
	query.NewListEmployeesHandler,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies.
// revoker, sessions and roles may be nil.
func InitializeHTTPHandler(
	repo domain.UserRepository,
	roleSource domain.RoleSource,
	tokens *auth.TokenManager,
	revoker command.TokenRevoker,
	sessions command.SessionCloser,
	roles command.RoleInvalidator,
	roleTimeout time.Duration,
) (*http.AccessHandler, error) {
	wire.Build(
		CommandHandlerSet,
		QueryHandlerSet,
		http.NewAccessHandler,
	)
	return nil, nil
}
