package leaderboard

import (
	"context"
	"fmt"

	"github.com/Sternrassler/strava-client/pkg/apierr"
	"github.com/Sternrassler/strava-client/pkg/pagination"
	"github.com/rs/zerolog"
)

// Context entry limits accepted by the leaderboard endpoint.
const (
	DefaultContextEntries = 2
	MaxContextEntries     = 15
)

// PageFunc fetches one leaderboard page.
type PageFunc func(ctx context.Context, page, perPage int) (*Page, error)

// ScopeFunc verifies the object a leaderboard is scoped to (a club, for example)
// before any page is read.
type ScopeFunc func(ctx context.Context) error

// Config holds assembler configuration.
type Config struct {
	// ContextEntries is the number of rows requested on each side of the principal.
	// Clamped to [0, MaxContextEntries].
	ContextEntries int

	// MaxPageSize is the remote page size used to walk the ranked list.
	MaxPageSize int

	// Principal is the athlete the leaderboard is requested for; 0 when unknown.
	Principal int64

	// ScopeCheck, when set, runs before the first page fetch.
	ScopeCheck ScopeFunc
}

// DefaultConfig returns the endpoint defaults.
func DefaultConfig(principal int64) Config {
	return Config{
		ContextEntries: DefaultContextEntries,
		MaxPageSize:    pagination.RemoteMaxPageSize,
		Principal:      principal,
	}
}

// ClampContextEntries limits n to the range the endpoint accepts.
func ClampContextEntries(n int) int {
	switch {
	case n < 0:
		return 0
	case n > MaxContextEntries:
		return MaxContextEntries
	default:
		return n
	}
}

// Assembler splits and accumulates leaderboard pages.
type Assembler struct {
	fetch  PageFunc
	config Config
	logger zerolog.Logger
}

// NewAssembler creates an assembler over fetch.
func NewAssembler(fetch PageFunc, config Config, logger zerolog.Logger) *Assembler {
	if fetch == nil {
		panic("leaderboard: page func cannot be nil")
	}
	config.ContextEntries = ClampContextEntries(config.ContextEntries)
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = pagination.RemoteMaxPageSize
	}

	return &Assembler{
		fetch:  fetch,
		config: config,
		logger: logger,
	}
}

// Window is the size of a context neighborhood: the principal plus ContextEntries
// rows on either side.
func (a *Assembler) Window() int {
	return 2*a.config.ContextEntries + 1
}

// Split separates one page into ranked rows and context rows.
//
// With two neighborhoods, index 0 rows are ranked and index 1 rows are context.
// With one neighborhood, a page of exactly Window() rows that contains the principal
// is all context. If the principal is unknown such a page contributes to neither list,
// since it cannot be told apart from a short ranked page. Any other page is ranked.
func (a *Assembler) Split(p *Page) (ranked, around []Entry) {
	if p == nil || len(p.Entries) == 0 {
		leaderboardPagesTotal.WithLabelValues("empty").Inc()
		return nil, nil
	}

	switch {
	case p.NeighborhoodCount >= 2:
		for _, e := range p.Entries {
			switch e.NeighborhoodIndex {
			case 0:
				ranked = append(ranked, e)
			case 1:
				around = append(around, e)
			}
		}
		leaderboardPagesTotal.WithLabelValues("two_neighborhoods").Inc()
		return ranked, around

	case p.NeighborhoodCount == 1 && len(p.Entries) == a.Window():
		if a.config.Principal == 0 {
			leaderboardPagesTotal.WithLabelValues("unattributed").Inc()
			a.logger.Debug().
				Int("entries", len(p.Entries)).
				Msg("Single neighborhood page without known principal, skipping")
			return nil, nil
		}
		if containsAthlete(p.Entries, a.config.Principal) {
			leaderboardPagesTotal.WithLabelValues("context").Inc()
			return nil, p.Entries
		}
	}

	leaderboardPagesTotal.WithLabelValues("ranked").Inc()
	return p.Entries, nil
}

// Assemble reads the leaderboard and returns its ranked rows for the window d selects
// together with the latest context rows. A nil d reads the whole ranked list.
// A leaderboard that does not exist, or whose scope check fails with NotFound or
// NotAuthorized, yields nil with a nil error.
func (a *Assembler) Assemble(ctx context.Context, d *pagination.Descriptor) (*Assembled, error) {
	if a.config.ScopeCheck != nil {
		if err := a.config.ScopeCheck(ctx); err != nil {
			if apierr.IsNotFound(err) || apierr.IsNotAuthorized(err) {
				a.logger.Debug().Err(err).Msg("Leaderboard scope not accessible")
				return nil, nil
			}
			return nil, fmt.Errorf("leaderboard scope check: %w", err)
		}
	}

	var (
		result  Assembled
		fetched int
		err     error
	)

	if d == nil {
		fetched, err = a.assembleAll(ctx, &result)
	} else {
		fetched, err = a.assembleWindow(ctx, d, &result)
	}
	if err != nil {
		if apierr.IsNotFound(err) && fetched == 0 {
			a.logger.Debug().Msg("Leaderboard not found")
			return nil, nil
		}
		return nil, err
	}

	if result.Entries == nil {
		result.Entries = []Entry{}
	}
	if result.Context == nil {
		result.Context = []Entry{}
	}

	a.logger.Debug().
		Int("pages", fetched).
		Int("entries", len(result.Entries)).
		Int("context", len(result.Context)).
		Msg("Leaderboard assembled")

	return &result, nil
}

// absorb splits p into result and returns the ranked rows it contributed.
func (a *Assembler) absorb(p *Page, result *Assembled) []Entry {
	ranked, around := a.Split(p)
	if len(around) > 0 {
		result.Context = around
	}
	if p != nil {
		result.EntryCount = p.EntryCount
		result.EffortCount = p.EffortCount
	}
	return ranked
}

// assembleAll walks pages 1, 2, ... until a page is empty or holds fewer ranked
// rows than the page size.
func (a *Assembler) assembleAll(ctx context.Context, result *Assembled) (int, error) {
	size := a.config.MaxPageSize
	fetched := 0

	for page := 1; ; page++ {
		p, err := a.fetch(ctx, page, size)
		if err != nil {
			return fetched, fmt.Errorf("fetch leaderboard page %d: %w", page, err)
		}
		fetched++

		if p == nil || len(p.Entries) == 0 {
			return fetched, nil
		}

		ranked := a.absorb(p, result)
		result.Entries = append(result.Entries, ranked...)

		if len(ranked) < size {
			return fetched, nil
		}
	}
}

// assembleWindow lets the translator map d onto remote pages of ranked rows, so
// trimming only ever touches ranked rows.
func (a *Assembler) assembleWindow(ctx context.Context, d *pagination.Descriptor, result *Assembled) (int, error) {
	fetched := 0
	fetch := func(ctx context.Context, page, perPage int) ([]Entry, error) {
		p, err := a.fetch(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		fetched++
		return a.absorb(p, result), nil
	}

	tr := pagination.NewTranslator(fetch, pagination.Config{MaxPageSize: a.config.MaxPageSize})
	entries, err := tr.RetrievePage(ctx, d)
	if err != nil {
		return fetched, err
	}
	result.Entries = entries
	return fetched, nil
}
