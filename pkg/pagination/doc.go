// Package pagination maps logical page requests onto Strava's fixed-size remote pages.
//
// Strava lists accept page and per_page query parameters and cap per_page at 200.
// A Descriptor asks for an arbitrary window of a collection; the Translator works out
// which remote pages cover that window, fetches them in increasing order and trims
// the concatenation to exactly the requested items. The Drainer walks a collection
// from page 1 until the remote signals the end of the data.
//
// Example usage:
//
//	d, err := pagination.NewTrimmedDescriptor(2, 250, 10, 0)
//	if err != nil {
//		return err
//	}
//	tr := pagination.NewTranslator(fetchActivities, pagination.DefaultConfig())
//	activities, err := tr.RetrievePage(ctx, &d)
//
// Fetches are strictly sequential. If the remote collection changes between two
// page fetches of one call the result can contain duplicates or miss items; the
// API offers no snapshot to prevent that.
package pagination
