// Package resolve turns a platform account into a pronoun profile, falling
// back to the upstream registry for accounts with no local identity.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"pronounapi/internal/compat"
	"pronounapi/internal/identity"
	identitystore "pronounapi/internal/identity/store"
	"pronounapi/internal/platform/metrics"
	"pronounapi/internal/pronoun"
	pronounstore "pronounapi/internal/pronoun/store"
	domainerrors "pronounapi/pkg/domain-errors"
	"pronounapi/pkg/platform/sentinel"
)

// Profile is the lookup response. ExternalID echoes the queried platform
// account id so clients can tell which account the profile describes; Compat
// marks profiles served from the upstream registry instead of a local
// identity.
type Profile struct {
	ExternalID string         `json:"userId"`
	Platform   string         `json:"platform"`
	Preferred  pronoun.Wire   `json:"preferredPronoun"`
	Extra      []pronoun.Wire `json:"extraPronouns"`
	Compat     bool           `json:"pronoundbCompat"`
}

type Service struct {
	identities identitystore.Store
	pronouns   pronounstore.Store
	compat     *compat.Client
	metrics    *metrics.Metrics
	intn       func(n int) int
}

type Option func(*Service)

// WithRand overrides the randomization source, for tests.
func WithRand(intn func(n int) int) Option {
	return func(s *Service) { s.intn = intn }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(identities identitystore.Store, pronouns pronounstore.Store, compatClient *compat.Client, opts ...Option) *Service {
	s := &Service{
		identities: identities,
		pronouns:   pronouns,
		compat:     compatClient,
		intn:       rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve looks up the pronoun profile for a platform account. Only the
// primary platform has local identities; every other platform goes straight
// to the upstream registry, as does a primary account nobody registered.
func (s *Service) Resolve(ctx context.Context, platform, externalID string) (*Profile, error) {
	if platform != string(identity.PrimaryPlatform) {
		return s.fallback(ctx, platform, externalID)
	}

	ident, err := s.identities.FindByPlatformID(ctx, identity.PrimaryPlatform, externalID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return s.fallback(ctx, platform, externalID)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	preferred, err := s.pronouns.FindByID(ctx, ident.PreferredPronounID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domainerrors.Newf(domainerrors.CodeInvariantViolation,
			"identity %d references missing pronoun %s", ident.ID, ident.PreferredPronounID)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	preferredWire, err := s.render(ctx, preferred, ident.RandomizeSubVariants)
	if err != nil {
		return nil, err
	}

	extra := make([]pronoun.Wire, 0, len(ident.ExtraPronounIDs))
	for _, id := range ident.ExtraPronounIDs {
		def, err := s.pronouns.FindByID(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.Newf(domainerrors.CodeInvariantViolation,
				"identity %d references missing pronoun %s", ident.ID, id)
		}
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
		}
		wire, err := s.render(ctx, def, ident.RandomizeSubVariants)
		if err != nil {
			return nil, err
		}
		extra = append(extra, wire)
	}

	s.metrics.RecordLookup(false)
	return &Profile{
		ExternalID: externalID,
		Platform:   platform,
		Preferred:  preferredWire,
		Extra:      extra,
		Compat:     false,
	}, nil
}

// render produces the wire view, substituting a random sub-variant's name and
// forms when the identity opted in. The id stays the base definition's so
// clients can still reference it.
func (s *Service) render(ctx context.Context, def *pronoun.Definition, randomize bool) (pronoun.Wire, error) {
	if !randomize || !def.CanRandomize() {
		return def.Wire(), nil
	}

	variantID := def.SubVariants[s.intn(len(def.SubVariants))]
	variant, err := s.pronouns.FindByID(ctx, variantID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return pronoun.Wire{}, domainerrors.Newf(domainerrors.CodeInvariantViolation,
			"pronoun %s references missing sub-variant %s", def.ID, variantID)
	}
	if err != nil {
		return pronoun.Wire{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	wire := variant.Wire()
	wire.ID = def.ID
	wire.CompatCode = def.CompatCode
	wire.DisplayName = fmt.Sprintf("%s (%s)", variant.DisplayName, def.DisplayName)
	return wire, nil
}

func (s *Service) fallback(ctx context.Context, platform, externalID string) (*Profile, error) {
	code, err := s.compat.Lookup(ctx, platform, externalID)
	if err != nil {
		// UpstreamError passes through so the handler can relay the
		// upstream status and body verbatim.
		return nil, err
	}

	def, err := s.pronouns.FindBuiltinByCompatCode(ctx, code)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "Unknown internal server error")
	}

	s.metrics.RecordLookup(true)
	return &Profile{
		ExternalID: externalID,
		Platform:   platform,
		Preferred:  def.Wire(),
		Extra:      []pronoun.Wire{},
		Compat:     true,
	}, nil
}
