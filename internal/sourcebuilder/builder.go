package sourcebuilder

import (
	"context"
	"errors"
	"fmt"

	"github.com/ryanparsons7/calendly-notion/internal/source"
	"github.com/ryanparsons7/calendly-notion/internal/source/calendly"
	"github.com/ryanparsons7/calendly-notion/internal/source/gcal"
	"github.com/ryanparsons7/calendly-notion/internal/source/icalfeed"
)

const (
	TypeCalendly = "calendly"
	TypeGoogle   = "gcal"
	TypeICal     = "ical"
)

var ErrUnknownType = errors.New("unknown source type")

type Config struct {
	Type     string
	Calendly calendly.Config
	Google   gcal.Config
	ICal     icalfeed.Config
}

func New(ctx context.Context, config Config) (source.Lister, error) {
	switch config.Type {
	case TypeCalendly, "":
		return calendly.New(config.Calendly), nil
	case TypeGoogle:
		s, err := gcal.New(ctx, config.Google)
		if err != nil {
			return nil, err
		}
		return s, nil
	case TypeICal:
		return icalfeed.New(config.ICal), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, config.Type)
	}
}
