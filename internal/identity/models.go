// Package identity models a user account and the external platform accounts
// bound to it.
package identity

import (
	"fmt"

	domainerrors "pronounapi/pkg/domain-errors"
)

// Platform identifies an external account provider.
type Platform string

const (
	PlatformDiscord   Platform = "discord"
	PlatformGitHub    Platform = "github"
	PlatformMinecraft Platform = "minecraft"
)

// PrimaryPlatform is the platform whose external id keys pronoun lookups.
const PrimaryPlatform = PlatformDiscord

// Platforms lists every linkable platform.
func Platforms() []Platform {
	return []Platform{PlatformDiscord, PlatformGitHub, PlatformMinecraft}
}

// ParsePlatform validates a platform string from the wire.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformDiscord, PlatformGitHub, PlatformMinecraft:
		return Platform(s), nil
	}
	return "", domainerrors.Newf(domainerrors.CodeValidation, "unknown platform %q", s)
}

// Identity is one account. At most one external id per platform; the zero
// pointer means the platform is not linked.
type Identity struct {
	ID int64

	Discord   *string
	GitHub    *string
	Minecraft *string

	// PreferredPronounID always references an existing definition; new
	// identities start at the unspecified builtin.
	PreferredPronounID string

	ExtraPronounIDs []string

	// RandomizeSubVariants opts the identity into sub-variant randomization
	// for eligible definitions at resolution time.
	RandomizeSubVariants bool
}

// ExternalID returns the bound external id for a platform, nil when unlinked.
func (i *Identity) ExternalID(p Platform) *string {
	switch p {
	case PlatformDiscord:
		return i.Discord
	case PlatformGitHub:
		return i.GitHub
	case PlatformMinecraft:
		return i.Minecraft
	}
	return nil
}

// SetExternalID binds an external id for a platform.
func (i *Identity) SetExternalID(p Platform, externalID string) error {
	switch p {
	case PlatformDiscord:
		i.Discord = &externalID
	case PlatformGitHub:
		i.GitHub = &externalID
	case PlatformMinecraft:
		i.Minecraft = &externalID
	default:
		return fmt.Errorf("unknown platform %q", p)
	}
	return nil
}
