package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/portalsend/internal/server/auth"
)

// authedHandler is a handler that additionally receives the authenticated
// caller resolved from the bearer token.
type authedHandler func(w http.ResponseWriter, r *http.Request, caller *auth.Identity)

func (s *Server) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, r, s.logger, errMissingBearer)
			return
		}

		caller, err := auth.GetIdentityFromToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}

		next(w, r, caller)
	}
}
