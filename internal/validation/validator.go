package validation

import (
	"context"
	"time"

	"github.com/Domenick1991/flightontime/internal/catalog"
	"github.com/Domenick1991/flightontime/internal/domain"
)

type CatalogSource interface {
	Load(ctx context.Context, name string) (catalog.Catalog, error)
}

// Validator applies the business rules a prediction request must satisfy
// before it is sent to the model.
type Validator struct {
	catalogs CatalogSource
	now      func() time.Time
}

type Option func(*Validator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func New(catalogs CatalogSource, opts ...Option) *Validator {
	v := &Validator{catalogs: catalogs, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate normalizes req and checks it, stopping at the first failure.
func (v *Validator) Validate(ctx context.Context, req domain.PredictionRequest) (domain.PredictionRequest, error) {
	req = req.Normalize()

	if err := v.checkCode(ctx, catalog.Airlines, "airline", req.Airline); err != nil {
		return req, err
	}
	if err := v.checkCode(ctx, catalog.Airports, "origin", req.Origin); err != nil {
		return req, err
	}
	if err := v.checkCode(ctx, catalog.Airports, "destination", req.Destination); err != nil {
		return req, err
	}
	if req.Origin == req.Destination {
		return req, domain.ValidationError("origin and destination must differ")
	}
	if err := v.ValidateDepartureNotPast(req.DepartureTime); err != nil {
		return req, err
	}
	return req, nil
}

// ValidateDepartureNotPast rejects a zero departure or one earlier than now.
// Both sides are truncated to whole seconds.
func (v *Validator) ValidateDepartureNotPast(departure time.Time) error {
	if departure.IsZero() {
		return domain.ValidationError("departure time required")
	}
	now := v.now().Truncate(time.Second)
	if departure.Truncate(time.Second).Before(now) {
		return domain.ValidationError("departure time must be in the future")
	}
	return nil
}

func (v *Validator) checkCode(ctx context.Context, catalogName, field, code string) error {
	if code == "" {
		return domain.ValidationError(field + " required")
	}
	c, err := v.catalogs.Load(ctx, catalogName)
	if err != nil {
		return err
	}
	if !c.Contains(code) {
		return domain.ValidationError("unknown " + field + " " + code)
	}
	return nil
}
