// Package paginate slices an already ordered collection into fixed-size pages.
package paginate

import (
	"net/http"
	"strconv"
)

// DefaultSize is the number of posts shown per page.
const DefaultSize = 10

// Page is one window of an ordered collection. Number is 1-based.
type Page[T any] struct {
	Items    []T
	Number   int
	Size     int
	Total    int
	NumPages int
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.NumPages }
func (p Page[T]) PrevNumber() int { return p.Number - 1 }
func (p Page[T]) NextNumber() int { return p.Number + 1 }

// HasOtherPages is true when navigation links are worth rendering.
func (p Page[T]) HasOtherPages() bool { return p.NumPages > 1 }

// Paginate returns page number n of items. Non-positive n is treated as 1,
// and a page past the end has no items rather than being an error.
func Paginate[T any](items []T, n, size int) Page[T] {
	if size <= 0 {
		size = DefaultSize
	}
	if n < 1 {
		n = 1
	}
	total := len(items)
	numPages := (total + size - 1) / size

	page := Page[T]{Number: n, Size: size, Total: total, NumPages: numPages}

	// compared before multiplying so a huge n cannot overflow start
	if n > numPages {
		page.Items = []T{}
		return page
	}
	start := (n - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	page.Items = items[start:end:end]
	return page
}

// Number reads the "page" query parameter; anything that is not a positive
// integer means the first page.
func Number(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
