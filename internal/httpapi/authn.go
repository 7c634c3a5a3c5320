package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"permitdesk.org/internal/auth"
	"permitdesk.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var errUnknownOperation = errors.New("httpapi: operation has no access requirement")

// withAccess runs the access decision for the matched route before its
// handler and attaches the caller to the request context on allow.
func (a *API) withAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var name string
		if current := mux.CurrentRoute(r); current != nil {
			name = current.GetName()
		}
		req, ok := a.requirementFor(name)
		if !ok {
			obs.RecordAuth("access", "unknown_route")
			obs.Error("access_table_miss", errUnknownOperation, map[string]any{"route": name})
			a.handleError(w, r, auth.ErrInsufficientRole)
			return
		}
		if req.IsPublic() {
			next.ServeHTTP(w, r)
			return
		}

		var caller *auth.Principal
		token, tokenErr := extractBearerToken(r.Header.Get(authHeader))
		if tokenErr == nil {
			p, err := a.auth.Authenticate(token)
			if err == nil {
				caller = &p
			} else {
				tokenErr = err
			}
		}

		if err := auth.Decide(req, caller); err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				obs.RecordAuth("access", "unauthenticated")
				w.Header().Set("WWW-Authenticate", `Bearer realm="permitdesk"`)
				if errors.Is(tokenErr, auth.ErrInvalidToken) {
					err = tokenErr
				}
			} else {
				obs.RecordAuth("access", "forbidden")
			}
			a.handleError(w, r, err)
			return
		}

		setRequestUser(r.Context(), caller.UserID)
		ctx := auth.ContextWithPrincipal(r.Context(), *caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func callerFrom(r *http.Request) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, auth.ErrUnauthenticated
	}
	return p, nil
}
