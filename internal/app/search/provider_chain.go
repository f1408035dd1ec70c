package search

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// ProviderChain tries providers in order until one answers.
type ProviderChain struct {
	providers  []ProviderWithMetadata
	defaultMax int
}

// NewProviderChain creates a new provider chain.
func NewProviderChain(providers []ProviderWithMetadata, defaultMax int) *ProviderChain {
	return &ProviderChain{
		providers:  providers,
		defaultMax: defaultMax,
	}
}

// Search normalizes the request and returns the first successful response.
// A provider failure is logged and recovered by the next provider. When a
// fallback answered, the response carries a notice naming the failed source.
func (c *ProviderChain) Search(ctx context.Context, req Request) (Response, error) {
	req, err := req.Normalize(c.defaultMax)
	if err != nil {
		return Response{}, err
	}
	if len(c.providers) == 0 {
		return Response{}, ErrNoProviders
	}

	var failed []string
	var errs error
	for i, pm := range c.providers {
		zlog.Debug().Msgf("search: trying provider index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		// Continuation pages come from the provider that served the first page
		if req.Source != "" && pm.Provider.Name() != req.Source {
			continue
		}

		resp, err := pm.Provider.Search(ctx, req)
		if err != nil {
			zlog.Warn().Msgf("search: provider failed, trying next provider=%s error=%v", pm.DisplayName, err)
			failed = append(failed, pm.DisplayName)
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "provider %s", pm.DisplayName))
			continue
		}

		if resp.Source == "" {
			resp.Source = pm.Provider.Name()
		}
		if len(failed) > 0 {
			resp.Notice = "Search is temporarily unavailable from " + joinNames(failed) + "; showing results from " + pm.DisplayName
		}
		zlog.Info().Msgf("search: provider returned results provider=%s query=%q count=%d", pm.DisplayName, req.Query, len(resp.Items))
		return resp, nil
	}

	if errs == nil {
		return Response{}, errors.Wrapf(ErrNoProviders, "source %s", req.Source)
	}
	return Response{}, errors.Wrap(errs, "all search providers failed")
}

// Lookup resolves a source id through the providers that support lookups.
// The demo catalog answers first, then the remaining resolvers in order.
// Providers that do not know the id or fail are skipped; a failure is only
// reported when no provider resolved the id.
func (c *ProviderChain) Lookup(ctx context.Context, sourceID string) (track.Track, error) {
	if sourceID == "" {
		return track.Track{}, errors.New("source id is required")
	}

	var errs error
	for _, pm := range c.lookupOrder() {
		r, ok := pm.Provider.(Resolver)
		if !ok {
			continue
		}
		t, err := r.Lookup(ctx, sourceID)
		if err == nil {
			return t, nil
		}
		if errors.Is(err, ErrTrackNotFound) {
			continue
		}
		zlog.Warn().Msgf("search: lookup failed, trying next provider=%s source_id=%s error=%v", pm.DisplayName, sourceID, err)
		errs = errors.CombineErrors(errs, errors.Wrapf(err, "lookup via %s", pm.DisplayName))
	}

	if errs != nil {
		return track.Track{}, errors.Wrapf(errs, "source %s", sourceID)
	}
	return track.Track{}, errors.Wrapf(ErrTrackNotFound, "source %s", sourceID)
}

// lookupOrder returns the providers with the demo catalog moved to the front.
func (c *ProviderChain) lookupOrder() []ProviderWithMetadata {
	ordered := make([]ProviderWithMetadata, 0, len(c.providers))
	for _, pm := range c.providers {
		if _, ok := pm.Provider.(*DemoProvider); ok {
			ordered = append(ordered, pm)
		}
	}
	for _, pm := range c.providers {
		if _, ok := pm.Provider.(*DemoProvider); !ok {
			ordered = append(ordered, pm)
		}
	}
	return ordered
}

// Providers returns the display names of the configured providers in order.
func (c *ProviderChain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, pm := range c.providers {
		names[i] = pm.DisplayName
	}
	return names
}

// Name returns the chain name.
func (c *ProviderChain) Name() string {
	return "provider_chain"
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	out := names[0]
	for _, n := range names[1 : len(names)-1] {
		out += ", " + n
	}
	return out + " and " + names[len(names)-1]
}
