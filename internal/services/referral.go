package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/syilabs-io/syi-staking-engine/internal/types"
	"github.com/syilabs-io/syi-staking-engine/pkg"
)

// BindReferrer permanently binds the account into the referral graph.
func (s *Service) BindReferrer(ctx context.Context, account, referrer string) *types.Error {
	if err := pkg.ValidateAddress(account); err != nil {
		return types.NewValidationFailedError(err)
	}
	if err := pkg.ValidateAddress(referrer); err != nil {
		return types.NewValidationFailedError(err)
	}

	if err := s.engine.BindReferrer(account, referrer, time.Now().UTC()); err != nil {
		return toServiceError(err)
	}

	s.persistState(ctx)
	log.Ctx(ctx).Info().
		Str("account", account).
		Str("referrer", referrer).
		Msg("Referrer bound")
	return nil
}

// BindFriend binds the direct-cut recipient for the account.
func (s *Service) BindFriend(ctx context.Context, account, friend string) *types.Error {
	if err := pkg.ValidateAddress(account); err != nil {
		return types.NewValidationFailedError(err)
	}
	if err := pkg.ValidateAddress(friend); err != nil {
		return types.NewValidationFailedError(err)
	}

	if err := s.engine.BindFriend(account, friend, time.Now().UTC()); err != nil {
		return toServiceError(err)
	}

	s.persistState(ctx)
	log.Ctx(ctx).Info().
		Str("account", account).
		Str("friend", friend).
		Msg("Friend bound")
	return nil
}
