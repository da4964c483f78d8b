package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/http/apierr"
)

// ValidateRequest rejects requests that do not match the API contract with
// a 400 before they reach a handler. Paths the contract does not describe
// pass through untouched. Multipart bodies are left to the handler.
func ValidateRequest(router routers.Router, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					ExcludeRequestBody: isMultipart(r),
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				res := apierr.New(apperr.ValidationErr.WithMsg(validationMessage(err)))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(res.StatusCode)
				if err := json.NewEncoder(w).Encode(res); err != nil {
					logger.WarnContext(r.Context(), "error encoding validation response", slog.Any("error", err))
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return "invalid " + reqErr.Parameter.In + " parameter " + reqErr.Parameter.Name
		}
		if reqErr.RequestBody != nil {
			return "invalid request body"
		}
	}
	return "request does not match the API contract"
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
