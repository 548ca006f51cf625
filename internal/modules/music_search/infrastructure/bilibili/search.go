package bilibili

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/sglre6355/sgrsearch/internal/json"
	"github.com/sglre6355/sgrsearch/internal/metrics"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// MaxEmptyRetries is how many times a search that yields no items is repeated.
const MaxEmptyRetries = 3

// Search returns one page of videos matching keyword.
// An empty result is retried up to MaxEmptyRetries times. Errors are returned at once.
func (c *Client) Search(ctx context.Context, keyword string, page, limit int) (*domain.Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	for retry := 0; ; retry++ {
		items, total, err := c.searchOnce(ctx, keyword, page, limit)
		if err != nil {
			return nil, err
		}

		if len(items) > 0 {
			if total <= 0 {
				total = len(items)
			}
			return domain.NewPage(SourceID, items, total, page, limit), nil
		}

		if retry >= MaxEmptyRetries {
			return domain.EmptyPage(SourceID, page, limit), nil
		}

		metrics.BackendRetries.WithLabelValues(string(SourceID)).Inc()
		slog.Debug("bilibili search returned no items, retrying",
			"keyword", keyword,
			"page", page,
			"retry", retry+1,
		)
	}
}

func (c *Client) searchOnce(
	ctx context.Context,
	keyword string,
	page, limit int,
) ([]*domain.Track, int, error) {
	headers := searchHeaders()
	if cookie := c.cookie(ctx); cookie != "" {
		headers["cookie"] = cookie
	}

	data, err := c.get(ctx, c.endpoints.Search+"?"+searchParams(keyword, page, limit).Encode(), headers)
	if err != nil {
		return nil, 0, err
	}

	var sd searchData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, 0, fmt.Errorf("%w: search data: %w", domain.ErrMalformedResponse, err)
	}

	raw, err := resultItems(sd.Result)
	if err != nil {
		return nil, 0, err
	}

	tracks := make([]*domain.Track, 0, len(raw))
	for _, item := range raw {
		tracks = append(tracks, normalizeItem(item))
	}
	return tracks, sd.NumResults, nil
}

// resultItems locates the result collection, which is either an array or an
// object carrying a vlist array.
func resultItems(result json.RawMessage) ([]searchItem, error) {
	trimmed := bytes.TrimSpace(result)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var items []searchItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: result list: %w", domain.ErrMalformedResponse, err)
		}
		return items, nil
	case '{':
		var obj searchResultObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("%w: result object: %w", domain.ErrMalformedResponse, err)
		}
		return obj.VList, nil
	default:
		return nil, nil
	}
}

func searchParams(keyword string, page, limit int) url.Values {
	params := url.Values{}
	params.Set("context", "")
	params.Set("page", strconv.Itoa(page))
	params.Set("order", "")
	params.Set("page_size", strconv.Itoa(limit))
	params.Set("keyword", keyword)
	params.Set("duration", "")
	params.Set("tids_1", "")
	params.Set("tids_2", "")
	params.Set("__refresh__", "true")
	params.Set("_extra", "")
	params.Set("highlight", "1")
	params.Set("single_column", "0")
	params.Set("platform", "pc")
	params.Set("from_source", "")
	params.Set("search_type", "video")
	params.Set("dynamic_offset", "0")
	return params
}

func searchHeaders() map[string]string {
	return map[string]string{
		"user-agent":      desktopUserAgent,
		"accept":          "application/json, text/plain, */*",
		"origin":          "https://search.bilibili.com",
		"sec-fetch-site":  "same-site",
		"sec-fetch-mode":  "cors",
		"sec-fetch-dest":  "empty",
		"referer":         "https://search.bilibili.com/",
		"accept-language": acceptLanguage,
	}
}
