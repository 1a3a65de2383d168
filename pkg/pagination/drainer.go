package pagination

import (
	"context"
	"time"

	"github.com/Sternrassler/strava-client/pkg/apierr"
	"github.com/rs/zerolog/log"
)

// Drainer retrieves a whole collection in chunks of the remote maximum page size.
type Drainer[T any] struct {
	translator *Translator[T]
	config     Config
}

// NewDrainer creates a drainer over fetch.
func NewDrainer[T any](fetch FetchFunc[T], config Config) *Drainer[T] {
	tr := NewTranslator(fetch, config)
	return &Drainer[T]{
		translator: tr,
		config:     tr.config,
	}
}

// RetrieveAll walks logical pages 1, 2, ... and returns every item in order.
// It stops at the first page holding fewer items than the chunk size. A NotFound
// from any page means the collection is absent and yields an empty slice, not an error.
// Without Config.MaxPages the walk is unbounded.
func (d *Drainer[T]) RetrieveAll(ctx context.Context) ([]T, error) {
	start := time.Now()
	chunk := d.config.MaxPageSize
	all := make([]T, 0, chunk)

	page := 1
	for ; d.config.MaxPages == 0 || page <= d.config.MaxPages; page++ {
		desc := Descriptor{page: page, pageSize: chunk}

		items, err := d.translator.RetrievePage(ctx, &desc)
		if err != nil {
			if apierr.IsNotFound(err) {
				log.Debug().
					Int("page", page).
					Msg("Collection not found, returning empty result")
				return []T{}, nil
			}
			return nil, err
		}

		all = append(all, items...)

		if len(items) < chunk {
			break
		}

		// Progress logging every 50 pages
		if page%50 == 0 {
			log.Info().
				Int("pages", page).
				Int("items", len(all)).
				Msg("Drain progress")
		}
	}

	log.Debug().
		Int("pages", page).
		Int("items", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Collection drained")

	return all, nil
}
