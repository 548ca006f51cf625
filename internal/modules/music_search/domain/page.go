package domain

// FailedPageLimit is the limit reported by the placeholder page of a failed backend.
const FailedPageLimit = 30

// Page is one backend's canonical search result.
type Page struct {
	List    []*Track
	Total   int
	Page    int
	Limit   int
	AllPage int
	Source  SourceID
}

// NewPage creates a Page and derives the page count from total and limit.
func NewPage(source SourceID, list []*Track, total, page, limit int) *Page {
	return &Page{
		List:    list,
		Total:   total,
		Page:    page,
		Limit:   limit,
		AllPage: pageCount(total, limit),
		Source:  source,
	}
}

// EmptyPage returns a valid page without results.
func EmptyPage(source SourceID, page, limit int) *Page {
	return NewPage(source, []*Track{}, 0, page, limit)
}

// FailedPage returns the placeholder recorded for a backend that failed during an aggregate search.
func FailedPage(source SourceID) *Page {
	return &Page{
		List:    []*Track{},
		Total:   0,
		Page:    1,
		Limit:   FailedPageLimit,
		AllPage: 1,
		Source:  source,
	}
}

func pageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
