// Package account manages identities: login, platform linking, pronoun
// preferences, and deletion.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pronounapi/internal/identity"
	identitystore "pronounapi/internal/identity/store"
	"pronounapi/internal/platform/metrics"
	"pronounapi/internal/pronoun"
	pronounstore "pronounapi/internal/pronoun/store"
	"pronounapi/internal/token"
	domainerrors "pronounapi/pkg/domain-errors"
	"pronounapi/pkg/platform/audit"
	"pronounapi/pkg/platform/audit/publisher"
	"pronounapi/pkg/platform/sentinel"
	pstrings "pronounapi/pkg/platform/strings"
)

type Service struct {
	identities identitystore.Store
	pronouns   pronounstore.Store
	tokens     *token.Service
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

func NewService(identities identitystore.Store, pronouns pronounstore.Store, tokens *token.Service, opts ...Option) *Service {
	s := &Service{identities: identities, pronouns: pronouns, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login trades a proof token for a session token, creating the identity on
// first login. A concurrent first login loses the insert race and adopts the
// winner's identity.
func (s *Service) Login(ctx context.Context, proofToken string) (string, error) {
	claims, err := s.tokens.VerifyProof(proofToken)
	if err != nil {
		return "", err
	}
	platform := identity.Platform(claims.Platform)

	ident, err := s.identities.FindByPlatformID(ctx, platform, claims.Subject)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound):
		ident, err = s.createIdentity(ctx, platform, claims.Subject)
		if err != nil {
			return "", err
		}
	default:
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	sessionToken, err := s.tokens.IssueUser(ident.ID)
	if err != nil {
		return "", err
	}

	s.publish(ctx, audit.Event{
		Action:  audit.ActionLogin,
		ActorID: ident.ID,
		Detail:  fmt.Sprintf("platform=%s", platform),
	})
	return sessionToken, nil
}

func (s *Service) createIdentity(ctx context.Context, platform identity.Platform, externalID string) (*identity.Identity, error) {
	ident := &identity.Identity{PreferredPronounID: pronoun.UnspecifiedID}
	if err := ident.SetExternalID(platform, externalID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	err := s.identities.Create(ctx, ident)
	if errors.Is(err, sentinel.ErrConflict) {
		// Someone else created it between our lookup and insert.
		ident, err = s.identities.FindByPlatformID(ctx, platform, externalID)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
		}
		return ident, nil
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	s.metrics.IncrementUsersCreated()
	return ident, nil
}

// Get loads an identity.
func (s *Service) Get(ctx context.Context, identityID int64) (*identity.Identity, error) {
	ident, err := s.identities.FindByID(ctx, identityID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domainerrors.New(domainerrors.CodeUnauthorized, "Invalid token")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}
	return ident, nil
}

// Link binds another platform account to an existing identity. The proof
// token must attest the named platform. The store's uniqueness constraint is
// authoritative; the pre-check only produces a friendlier error for the
// common case.
func (s *Service) Link(ctx context.Context, identityID int64, platform identity.Platform, proofToken string) error {
	claims, err := s.tokens.VerifyProofFor(proofToken, platform)
	if err != nil {
		return err
	}

	holder, err := s.identities.FindByPlatformID(ctx, platform, claims.Subject)
	if err == nil {
		if holder.ID == identityID {
			return nil
		}
		return domainerrors.Newf(domainerrors.CodeConflict,
			"This %s account is already linked to another user", platform)
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	err = s.identities.SetPlatformID(ctx, identityID, platform, claims.Subject)
	if errors.Is(err, sentinel.ErrConflict) {
		return domainerrors.Newf(domainerrors.CodeConflict,
			"This %s account is already linked to another user", platform)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return domainerrors.New(domainerrors.CodeUnauthorized, "Invalid token")
	}
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	s.publish(ctx, audit.Event{
		Action:  audit.ActionAccountLinked,
		ActorID: identityID,
		Detail:  fmt.Sprintf("platform=%s", platform),
	})
	return nil
}

// Preferences is a partial update; nil fields are left unchanged.
type Preferences struct {
	PreferredPronounID   *string
	ExtraPronounIDs      *[]string
	RandomizeSubVariants *bool
}

// UpdatePreferences applies a preference change after checking every
// referenced pronoun id resolves.
func (s *Service) UpdatePreferences(ctx context.Context, identityID int64, prefs Preferences) (*identity.Identity, error) {
	ident, err := s.Get(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if prefs.PreferredPronounID != nil {
		ident.PreferredPronounID = *prefs.PreferredPronounID
	}
	if prefs.ExtraPronounIDs != nil {
		ident.ExtraPronounIDs = append([]string(nil), (*prefs.ExtraPronounIDs)...)
	}
	if prefs.RandomizeSubVariants != nil {
		ident.RandomizeSubVariants = *prefs.RandomizeSubVariants
	}

	if err := s.checkPronounsExist(ctx, ident); err != nil {
		return nil, err
	}

	if err := s.identities.Update(ctx, ident); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}
	return ident, nil
}

func (s *Service) checkPronounsExist(ctx context.Context, ident *identity.Identity) error {
	if strings.TrimSpace(ident.PreferredPronounID) == "" {
		return domainerrors.New(domainerrors.CodeValidation, "Pronoun id was not provided")
	}

	ids := append([]string{ident.PreferredPronounID}, ident.ExtraPronounIDs...)
	unique := pstrings.DedupeAndTrim(ids)

	found, err := s.pronouns.FindByIDs(ctx, unique)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}
	if len(found) != len(unique) {
		return domainerrors.New(domainerrors.CodeNotFound, "Unknown pronoun id")
	}
	return nil
}

// Delete removes the identity and all of its platform bindings.
func (s *Service) Delete(ctx context.Context, identityID int64) error {
	err := s.identities.Delete(ctx, identityID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domainerrors.New(domainerrors.CodeUnauthorized, "Invalid token")
	}
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	s.publish(ctx, audit.Event{Action: audit.ActionUserDeleted, ActorID: identityID})
	return nil
}

func (s *Service) publish(ctx context.Context, event audit.Event) {
	if s.audit != nil {
		s.audit.Publish(ctx, event)
	}
}
