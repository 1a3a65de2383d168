package pagination

import (
	"fmt"

	"github.com/Sternrassler/strava-client/pkg/apierr"
)

// Descriptor describes a logical page request: page Page of size PageSize, with
// IgnoreFirst items dropped from the front and IgnoreLast from the back.
// A PageSize of 0 asks for the remote default page. The zero value is not valid;
// use NewDescriptor or NewTrimmedDescriptor. A nil *Descriptor means no paging constraints.
type Descriptor struct {
	page        int
	pageSize    int
	ignoreFirst int
	ignoreLast  int
}

// NewDescriptor returns an untrimmed descriptor.
func NewDescriptor(page, pageSize int) (Descriptor, error) {
	return NewTrimmedDescriptor(page, pageSize, 0, 0)
}

// NewTrimmedDescriptor validates and returns a descriptor. Violations are reported
// as apierr.ErrInvalidDescriptor.
func NewTrimmedDescriptor(page, pageSize, ignoreFirst, ignoreLast int) (Descriptor, error) {
	switch {
	case page < 1:
		return Descriptor{}, invalid("page must be >= 1 (got %d)", page)
	case pageSize < 0:
		return Descriptor{}, invalid("page size must be >= 0 (got %d)", pageSize)
	case ignoreFirst < 0 || ignoreLast < 0:
		return Descriptor{}, invalid("ignore counts must be >= 0 (got %d, %d)", ignoreFirst, ignoreLast)
	case pageSize == 0 && (ignoreFirst > 0 || ignoreLast > 0):
		return Descriptor{}, invalid("cannot trim a remote default page")
	case pageSize > 0 && pageSize-ignoreFirst-ignoreLast <= 0:
		return Descriptor{}, invalid("page size %d leaves no items after ignoring %d+%d",
			pageSize, ignoreFirst, ignoreLast)
	}

	return Descriptor{
		page:        page,
		pageSize:    pageSize,
		ignoreFirst: ignoreFirst,
		ignoreLast:  ignoreLast,
	}, nil
}

// MustDescriptor is like NewTrimmedDescriptor but panics on invalid input.
// Intended for constants in tests and examples.
func MustDescriptor(page, pageSize, ignoreFirst, ignoreLast int) Descriptor {
	d, err := NewTrimmedDescriptor(page, pageSize, ignoreFirst, ignoreLast)
	if err != nil {
		panic(err)
	}
	return d
}

func invalid(format string, args ...any) error {
	return apierr.New(apierr.KindInvalidDescriptor, 0, fmt.Sprintf(format, args...))
}

// Page returns the 1-based logical page number.
func (d Descriptor) Page() int { return d.page }

// PageSize returns the logical page size; 0 means the remote default.
func (d Descriptor) PageSize() int { return d.pageSize }

// IgnoreFirst returns how many leading items of the page are dropped.
func (d Descriptor) IgnoreFirst() int { return d.ignoreFirst }

// IgnoreLast returns how many trailing items of the page are dropped.
func (d Descriptor) IgnoreLast() int { return d.ignoreLast }

// window returns the absolute, 0-based item range [lo, hi) the descriptor selects.
func (d Descriptor) window() (lo, hi int) {
	start := (d.page - 1) * d.pageSize
	return start + d.ignoreFirst, start + d.pageSize - d.ignoreLast
}

// String renders the descriptor for logs.
func (d Descriptor) String() string {
	return fmt.Sprintf("page=%d size=%d ignore_first=%d ignore_last=%d",
		d.page, d.pageSize, d.ignoreFirst, d.ignoreLast)
}
