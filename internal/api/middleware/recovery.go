package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/chessrooms/internal/api/apierr"
	sharedmw "github.com/mcoot/chessrooms/internal/middleware"
)

// Recovery turns handler panics into the INTERNAL_ERROR JSON body
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return sharedmw.Recovery(logger.With(slog.String("component", "api")), func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
