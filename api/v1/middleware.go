package v1

import (
	"context"
	"errors"
	"net/http"
)

func MiddlewareBatchValidation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body submitBody
		if err := decodeJSONStrict(w, r, &body, 1<<20); err != nil {
			if errors.Is(err, ErrContentType) {
				markErr(w, err)
				http.Error(w, ErrContentType.Error(), http.StatusUnsupportedMediaType)
				return
			}
			markErr(w, err)
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}

		if len(body.Links) == 0 {
			markErr(w, ErrLinksRequired)
			http.Error(w, ErrLinksRequired.Error(), http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeySubmit{}, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
