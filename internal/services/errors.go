package services

import (
	"errors"
	"net/http"

	"github.com/syilabs-io/syi-staking-engine/internal/engine"
	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

// toServiceError maps engine failures onto the stable API error taxonomy.
func toServiceError(err error) *types.Error {
	switch {
	case errors.Is(err, engine.ErrAdmissionRejected):
		return types.NewError(http.StatusTooManyRequests, types.AdmissionRejected, err)
	case errors.Is(err, engine.ErrInvalidReferrer),
		errors.Is(err, engine.ErrReferrerNotBound):
		return types.NewError(http.StatusUnprocessableEntity, types.InvalidReferrer, err)
	case errors.Is(err, engine.ErrAlreadyBound):
		return types.NewError(http.StatusConflict, types.AlreadyBound, err)
	case errors.Is(err, engine.ErrNotMatured):
		return types.NewError(http.StatusConflict, types.NotMatured, err)
	case errors.Is(err, engine.ErrStakeMatured):
		return types.NewError(http.StatusConflict, types.StakeMatured, err)
	case errors.Is(err, engine.ErrDustTooSmall):
		return types.NewError(http.StatusUnprocessableEntity, types.DustTooSmall, err)
	case errors.Is(err, engine.ErrPeriodInvalid):
		return types.NewError(http.StatusBadRequest, types.PeriodInvalid, err)
	case errors.Is(err, engine.ErrUnauthorized):
		return types.NewError(http.StatusForbidden, types.Unauthorized, err)
	case errors.Is(err, engine.ErrSettlementInFlight):
		return types.NewError(http.StatusConflict, types.SettlementInFlight, err)
	case errors.Is(err, engine.ErrStakeClosed):
		return types.NewError(http.StatusConflict, types.ValidationError, err)
	case errors.Is(err, engine.ErrStakeNotFound),
		errors.Is(err, engine.ErrAccountNotFound):
		return types.NewError(http.StatusNotFound, types.NotFound, err)
	default:
		return types.NewInternalServiceError(err)
	}
}
