// Package service manages user-created pronoun definitions.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	identitystore "pronounapi/internal/identity/store"
	"pronounapi/internal/platform/metrics"
	"pronounapi/internal/pronoun"
	pronounstore "pronounapi/internal/pronoun/store"
	"pronounapi/internal/ratelimit"
	domainerrors "pronounapi/pkg/domain-errors"
	"pronounapi/pkg/platform/audit"
	"pronounapi/pkg/platform/audit/publisher"
	"pronounapi/pkg/platform/sentinel"
)

// MaxCustomPerUser caps how many definitions one identity may create.
const MaxCustomPerUser = 10

type Service struct {
	pronouns   pronounstore.Store
	identities identitystore.Store
	limiter    ratelimit.Limiter
	audit      *publisher.Publisher
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithAudit(pub *publisher.Publisher) Option {
	return func(s *Service) { s.audit = pub }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(pronouns pronounstore.Store, identities identitystore.Store, limiter ratelimit.Limiter, opts ...Option) *Service {
	s := &Service{pronouns: pronouns, identities: identities, limiter: limiter}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateRequest struct {
	DisplayName string
	Forms       pronoun.Forms
}

func (r *CreateRequest) validate() error {
	missing := func(s string) bool { return strings.TrimSpace(s) == "" }
	switch {
	case missing(r.DisplayName):
		return domainerrors.New(domainerrors.CodeValidation, "Pronoun was not provided")
	case missing(r.Forms.Subject), missing(r.Forms.Object),
		missing(r.Forms.PossessiveDeterminer), missing(r.Forms.PossessivePronoun),
		missing(r.Forms.Reflexive):
		return domainerrors.New(domainerrors.CodeValidation, "All five pronoun forms must be provided")
	}
	return nil
}

// Create adds a user-created definition. Malformed requests are rejected
// before the rate limit point is consumed; the limiter decision is returned
// even on rejection so the transport can set the limit headers.
func (s *Service) Create(ctx context.Context, identityID int64, req CreateRequest) (*pronoun.Definition, *ratelimit.Result, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}

	res, err := s.limiter.Allow(ctx, fmt.Sprintf("pronoun-create:%d", identityID))
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}
	if !res.Allowed {
		s.metrics.IncrementRateLimited()
		return nil, res, domainerrors.New(domainerrors.CodeRateLimited, "You are being rate limited")
	}

	count, err := s.pronouns.CountByCreator(ctx, identityID)
	if err != nil {
		return nil, res, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}
	if count >= MaxCustomPerUser {
		return nil, res, domainerrors.New(domainerrors.CodeQuotaExceeded,
			"You have reached the maximum amount of custom pronouns")
	}

	def := &pronoun.Definition{
		ID:          pronoun.NewCustomID(),
		DisplayName: req.DisplayName,
		Forms:       req.Forms,
		CreatorID:   &identityID,
	}
	if err := s.pronouns.Insert(ctx, def); err != nil {
		return nil, res, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	s.metrics.IncrementPronounsCreated()
	s.publish(ctx, audit.Event{
		Action:  audit.ActionPronounCreated,
		ActorID: identityID,
		Detail:  fmt.Sprintf("pronoun=%s", def.ID),
	})
	return def, res, nil
}

// Delete removes a user-created definition. Only the creator may delete it,
// and only while nobody uses it as their preferred pronoun. Extra pronoun
// references do not block deletion; resolution reports them as an invariant
// violation instead.
func (s *Service) Delete(ctx context.Context, identityID int64, pronounID string) error {
	def, err := s.pronouns.FindByID(ctx, pronounID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domainerrors.New(domainerrors.CodeNotFound, "Unknown pronoun id")
	}
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	if def.IsBuiltin() || *def.CreatorID != identityID {
		return domainerrors.New(domainerrors.CodeForbidden, "You cannot delete this pronoun")
	}

	inUse, err := s.identities.CountByPreferredPronoun(ctx, pronounID)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}
	if inUse > 0 {
		return domainerrors.New(domainerrors.CodeConflict, "This pronoun is currently in use")
	}

	if err := s.pronouns.Delete(ctx, pronounID); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	s.publish(ctx, audit.Event{
		Action:  audit.ActionPronounDeleted,
		ActorID: identityID,
		Detail:  fmt.Sprintf("pronoun=%s", pronounID),
	})
	return nil
}

// Get loads one definition.
func (s *Service) Get(ctx context.Context, pronounID string) (*pronoun.Definition, error) {
	def, err := s.pronouns.FindByID(ctx, pronounID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domainerrors.New(domainerrors.CodeNotFound, "Unknown pronoun id")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}
	return def, nil
}

// List returns every definition, builtin and user-created.
func (s *Service) List(ctx context.Context) ([]*pronoun.Definition, error) {
	defs, err := s.pronouns.List(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}
	return defs, nil
}

func (s *Service) publish(ctx context.Context, event audit.Event) {
	if s.audit != nil {
		s.audit.Publish(ctx, event)
	}
}
