package services

import (
	"net/http"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/go-chi/chi/v5"

	"github.com/syilabs-io/syi-staking-engine/internal/types"
	"github.com/syilabs-io/syi-staking-engine/pkg"
)

type stakeRequest struct {
	Account  string `json:"account"`
	Amount   string `json:"amount"`
	Selector uint32 `json:"selector"`
}

type bindReferrerRequest struct {
	Account  string `json:"account"`
	Referrer string `json:"referrer"`
}

type bindFriendRequest struct {
	Account string `json:"account"`
	Friend  string `json:"friend"`
}

func (s *Service) handleStake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
	if terr := s.decodeRequest(w, r, &req); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	amount, ok := sdkmath.NewIntFromString(req.Amount)
	if !ok {
		writeErrorResponse(w, r, types.NewErrorWithMsg(
			http.StatusBadRequest, types.ValidationError, "amount must be a base-10 integer"))
		return
	}

	record, terr := s.Stake(r.Context(), req.Account, amount, req.Selector)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusCreated, record)
}

func (s *Service) handleUnstake(w http.ResponseWriter, r *http.Request) {
	account, index, terr := stakePathParams(r)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	payout, terr := s.Unstake(r.Context(), account, index)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusOK, payout)
}

func (s *Service) handleWithdrawInterest(w http.ResponseWriter, r *http.Request) {
	account, index, terr := stakePathParams(r)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	payout, terr := s.WithdrawInterest(r.Context(), account, index)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusOK, payout)
}

func (s *Service) handleBindReferrer(w http.ResponseWriter, r *http.Request) {
	var req bindReferrerRequest
	if terr := s.decodeRequest(w, r, &req); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	if terr := s.BindReferrer(r.Context(), req.Account, req.Referrer); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusOK, map[string]string{
		"account":  req.Account,
		"referrer": req.Referrer,
	})
}

func (s *Service) handleBindFriend(w http.ResponseWriter, r *http.Request) {
	var req bindFriendRequest
	if terr := s.decodeRequest(w, r, &req); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	if terr := s.BindFriend(r.Context(), req.Account, req.Friend); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusOK, map[string]string{
		"account": req.Account,
		"friend":  req.Friend,
	})
}

func (s *Service) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, terr := accountPathParam(r)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	info, err := s.engine.AccountInfo(account)
	if err != nil {
		writeErrorResponse(w, r, toServiceError(err))
		return
	}
	writeResponse(w, r, http.StatusOK, info)
}

func (s *Service) handleGetStakes(w http.ResponseWriter, r *http.Request) {
	account, terr := accountPathParam(r)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	infos, err := s.engine.StakeInfos(account, time.Now().UTC())
	if err != nil {
		writeErrorResponse(w, r, toServiceError(err))
		return
	}
	writeResponse(w, r, http.StatusOK, infos)
}

func (s *Service) handleGetStake(w http.ResponseWriter, r *http.Request) {
	account, index, terr := stakePathParams(r)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	info, err := s.engine.StakeInfo(account, index, time.Now().UTC())
	if err != nil {
		writeErrorResponse(w, r, toServiceError(err))
		return
	}
	writeResponse(w, r, http.StatusOK, info)
}

func (s *Service) handleGetRank(w http.ResponseWriter, r *http.Request) {
	account, terr := accountPathParam(r)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	info, err := s.engine.RankInfoFor(account)
	if err != nil {
		writeErrorResponse(w, r, toServiceError(err))
		return
	}
	writeResponse(w, r, http.StatusOK, info)
}

func (s *Service) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	account, terr := accountPathParam(r)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	limit := s.cfg.Db.EventQueryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeErrorResponse(w, r, types.NewErrorWithMsg(
				http.StatusBadRequest, types.ValidationError, "limit must be a positive integer"))
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}
	events, err := s.db.GetEventsByAccount(r.Context(), account, limit)
	if err != nil {
		writeErrorResponse(w, r, types.NewInternalServiceError(err))
		return
	}
	writeResponse(w, r, http.StatusOK, events)
}

func (s *Service) handleGetTierAudits(w http.ResponseWriter, r *http.Request) {
	account, terr := accountPathParam(r)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	audits, err := s.db.GetTierAuditsByAccount(r.Context(), account)
	if err != nil {
		writeErrorResponse(w, r, types.NewInternalServiceError(err))
		return
	}
	writeResponse(w, r, http.StatusOK, audits)
}

func (s *Service) handleGetAdmission(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account != "" {
		if err := pkg.ValidateAddress(account); err != nil {
			writeErrorResponse(w, r, types.NewValidationFailedError(err))
			return
		}
	}
	writeResponse(w, r, http.StatusOK, s.Admission(r.Context(), account))
}

func (s *Service) handleGetParams(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, r, http.StatusOK, newParamsResponse(s.engine.Params()))
}

func (s *Service) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeErrorResponse(w, r, types.NewInternalServiceError(err))
		return
	}
	writeResponse(w, r, http.StatusOK, "Server is up and running")
}

func accountPathParam(r *http.Request) (string, *types.Error) {
	account := chi.URLParam(r, "account")
	if err := pkg.ValidateAddress(account); err != nil {
		return "", types.NewValidationFailedError(err)
	}
	return account, nil
}

func stakePathParams(r *http.Request) (string, int, *types.Error) {
	account, terr := accountPathParam(r)
	if terr != nil {
		return "", 0, terr
	}
	index, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil || index < 0 {
		return "", 0, types.NewErrorWithMsg(
			http.StatusBadRequest, types.ValidationError, "stake index must be a non-negative integer")
	}
	return account, index, nil
}
