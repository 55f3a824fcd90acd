package syncer

import (
	"fmt"
	"net/url"
	"strings"
)

type UpdatePolicy string

const (
	// UpdatePolicySkip leaves already imported events untouched.
	UpdatePolicySkip UpdatePolicy = "skip"
	// UpdatePolicyUpdate reschedules imported records whose meeting time changed.
	UpdatePolicyUpdate UpdatePolicy = "update"
)

// Config is the immutable input of one sync pass.
type Config struct {
	LookaheadDays int
	LinkPrefix    string
	DatabaseID    string
	OrgReference  string
	UpdatePolicy  UpdatePolicy
}

func (c Config) Validate() error {
	if c.LookaheadDays < 0 {
		return fmt.Errorf("%w: lookahead days must not be negative, got %d", ErrInvalidConfig, c.LookaheadDays)
	}
	if strings.TrimSpace(c.DatabaseID) == "" {
		return fmt.Errorf("%w: target database id is empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.OrgReference) == "" {
		return fmt.Errorf("%w: organization reference is empty", ErrInvalidConfig)
	}
	u, err := url.Parse(c.LinkPrefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: link prefix %q is not an absolute URL", ErrInvalidConfig, c.LinkPrefix)
	}
	switch c.UpdatePolicy {
	case "", UpdatePolicySkip, UpdatePolicyUpdate:
	default:
		return fmt.Errorf("%w: unknown update policy %q", ErrInvalidConfig, c.UpdatePolicy)
	}
	return nil
}

func (c Config) updates() bool {
	return c.UpdatePolicy == UpdatePolicyUpdate
}
