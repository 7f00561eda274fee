package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/slack-go/slack"
)

// SlackVerifyMiddleware authenticates inbound slash commands against the
// workspace signing secret. The body is consumed for the HMAC check and
// restored so the handler can still parse the form.
func SlackVerifyMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "Bad Request", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			verifier, err := slack.NewSecretsVerifier(r.Header, signingSecret)
			if err != nil {
				http.Error(w, "Bad Request", http.StatusBadRequest)
				return
			}
			if _, err := verifier.Write(body); err != nil {
				http.Error(w, "Bad Request", http.StatusBadRequest)
				return
			}
			if err := verifier.Ensure(); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
