package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/aryasetia/fitmon/pkg"

	log "github.com/sirupsen/logrus"
)

type loginChecker interface {
	IsLogged(ctx context.Context, token string) (bool, error)
}

// AuthCheck guards the dashboard endpoints with a login token and the
// ingestion endpoints with a shared device secret. Read-only endpoints
// used by the public charts page stay open.
func AuthCheck(
	loginChecker loginChecker,
	deviceSecret string,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			reqPath := r.URL.Path
			switch {
			case
				reqPath == "/",
				reqPath == "/ping",
				strings.HasPrefix(reqPath, "/users/register"),
				strings.HasPrefix(reqPath, "/users/rfid"),
				strings.HasPrefix(reqPath, "/history"),
				strings.HasPrefix(reqPath, "/sessions/list"),
				strings.HasPrefix(reqPath, "/workouts/dates"):
				next.ServeHTTP(w, r)
				return
			}

			// sensor traffic carries the device secret instead of a login token
			if strings.HasPrefix(reqPath, "/ingest") {
				secret := r.Header.Get("X-FITMON-DEVICE-SECRET")
				if subtle.ConstantTimeCompare([]byte(secret), []byte(deviceSecret)) != 1 {
					log.Tracef("[device auth] [%s] invalid secret, refusing access", reqPath)
					http.Error(w, "no can do", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			authToken := r.Header.Get("X-FITMON-TOKEN")
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] %s => %s", r.Method, reqPath)
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}

			isLogged, err := loginChecker.IsLogged(r.Context(), authToken)
			if err != nil {
				log.Tracef("[failed login check] => %s: %s", reqPath, err)
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}
			if !isLogged {
				log.Tracef("[invalid token] [auth middleware] %s => %s", r.Method, reqPath)
				pkg.WriteResponse(w, pkg.ContentType.Text, "no can do", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
