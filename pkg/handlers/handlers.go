// Package handlers implements one HTTP handler per function. Every caught
// failure is answered with {"error": message} and status 400.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"puantajx-functions/pkg/apperr"
	"puantajx-functions/pkg/utils"
)

// writeFailure logs err with its kind and writes the error envelope.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Warn().
		Err(err).
		Str("kind", string(apperr.KindOf(err))).
		Msg("function failed")
	utils.WriteErrorResponse(w, err.Error())
}

// decodeBody parses the JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	if err := utils.ParseJSONBody(r, v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.KindValidation, "Request body is required")
		}
		return apperr.Wrap(apperr.KindValidation, err, "Invalid JSON body")
	}
	return nil
}

// Preflight answers CORS preflight requests. The CORS middleware has already
// set the Access-Control headers.
func Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
