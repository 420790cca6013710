package qr

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/seasky/seasky-api/internal/domain/party"
)

// DefaultTTL applies when the caller does not choose a lifetime.
const DefaultTTL = 5 * time.Minute

type Service struct {
	repo     *Repository
	resolver *party.Resolver
}

func NewService(repo *Repository, resolver *party.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// Issue creates a token bound to an existing subject. The subject is
// resolved first so tokens never point at nothing.
func (s *Service) Issue(ctx context.Context, subjectType party.SubjectType, subjectID int64, purpose Purpose, ttl time.Duration, oneTime bool) (*Token, error) {
	if !purpose.Valid() {
		return nil, ErrInvalidPurpose
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	if _, err := s.resolver.Resolve(ctx, subjectType, subjectID); err != nil {
		return nil, err
	}

	t, err := s.repo.Insert(ctx, subjectType, subjectID, purpose, time.Now().Add(ttl), oneTime)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("subject_type", string(subjectType)).
		Int64("subject_id", subjectID).
		Str("purpose", string(purpose)).
		Time("expires_at", t.ExpiresAt).
		Msg("qr token issued")
	return t, nil
}

// Redeem consumes a token standalone (no coupled business mutation) and
// resolves the subject behind it for the caller.
func (s *Service) Redeem(ctx context.Context, code string, actorID int64, ip, userAgent string) (*Token, *Scan, *party.Subject, error) {
	if !ValidateFormat(code) {
		return nil, nil, nil, ErrInvalidFormat
	}

	t, scan, err := s.repo.Redeem(ctx, code, actorID, ip, userAgent)
	if err != nil {
		return nil, nil, nil, err
	}

	subject, err := s.resolver.Resolve(ctx, t.SubjectType, t.SubjectID)
	if err != nil {
		// the token outlived its subject; the redemption stands, the
		// caller just gets no subject detail
		log.Warn().Err(err).Str("code", t.Code).Msg("token subject no longer resolvable")
		subject = nil
	}

	log.Info().
		Str("code", t.Code).
		Int64("scanned_by", actorID).
		Str("ip", ip).
		Msg("qr token redeemed")
	return t, scan, subject, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Token, error) {
	if !ValidateFormat(code) {
		return nil, ErrInvalidFormat
	}
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) Active(ctx context.Context) ([]Token, error) {
	return s.repo.Active(ctx)
}

func (s *Service) ScansByActor(ctx context.Context, actorID int64, limit int) ([]Scan, error) {
	return s.repo.ScansByActor(ctx, actorID, limit)
}
