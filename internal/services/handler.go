package services

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

type apiResponse struct {
	Data any `json:"data"`
}

type apiError struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func newUnauthorizedError() *types.Error {
	return types.NewErrorWithMsg(http.StatusForbidden, types.Unauthorized, "missing or invalid role key")
}

func writeResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Data: data}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode API response")
	}
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, terr *types.Error) {
	if terr.StatusCode >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(terr.Err).
			Str("path", r.URL.Path).
			Msg("Request failed")
	} else {
		log.Ctx(r.Context()).Warn().Err(terr.Err).
			Str("path", r.URL.Path).
			Str("error_code", terr.ErrorCode.String()).
			Msg("Request rejected")
	}

	body := apiError{ErrorCode: terr.ErrorCode.String(), Message: terr.Error()}
	// Internal details stay in the logs.
	if terr.StatusCode >= http.StatusInternalServerError {
		body.Message = "internal service error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(terr.StatusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode API error")
	}
}

// decodeRequest unmarshals a JSON body, bounded by the configured content
// length limit.
func (s *Service) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) *types.Error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxContentLength)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return types.NewValidationFailedError(err)
	}
	return nil
}
