package bilibili

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/sglre6355/sgrsearch/internal/json"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// ResolveURL returns the audio stream of a track.
// The highest-bandwidth DASH audio stream is preferred over the progressive one.
func (c *Client) ResolveURL(ctx context.Context, track *domain.Track, _ string) (string, error) {
	bvid := track.Meta(MetaBVID)
	aid := track.Meta(MetaAID)
	if bvid == "" && aid == "" {
		return "", fmt.Errorf("%w: need bvid or aid", domain.ErrMissingIdentifiers)
	}

	params := url.Values{}
	if bvid != "" {
		params.Set("bvid", bvid)
	} else {
		params.Set("aid", aid)
	}

	cid := track.Meta(MetaCID)
	if cid == "" {
		var err error
		cid, err = c.fetchCID(ctx, params)
		if err != nil {
			return "", err
		}
	}

	params.Set("cid", cid)
	params.Set("fnval", "16")

	data, err := c.get(ctx, c.endpoints.PlayURL+"?"+params.Encode(), playHeaders())
	if err != nil {
		return "", err
	}

	var play playData
	if err := json.Unmarshal(data, &play); err != nil {
		return "", fmt.Errorf("%w: playurl: %w", domain.ErrMalformedResponse, err)
	}

	if u := bestStream(play); u != "" {
		return u, nil
	}
	return "", domain.ErrNoPlayableURL
}

func (c *Client) fetchCID(ctx context.Context, params url.Values) (string, error) {
	data, err := c.get(ctx, c.endpoints.View+"?"+params.Encode(), playHeaders())
	if err != nil {
		return "", err
	}

	var view viewData
	if err := json.Unmarshal(data, &view); err != nil {
		return "", fmt.Errorf("%w: view: %w", domain.ErrMalformedResponse, err)
	}
	if len(view.Pages) == 0 || view.Pages[0].CID <= 0 {
		return "", fmt.Errorf("%w: video has no cid", domain.ErrMissingIdentifiers)
	}
	return strconv.FormatInt(view.Pages[0].CID, 10), nil
}

// bestStream picks the highest-bandwidth dash audio stream that carries a URL,
// then the first progressive stream with one.
func bestStream(play playData) string {
	if play.Dash != nil {
		audios := slices.Clone(play.Dash.Audio)
		slices.SortStableFunc(audios, func(a, b dashAudio) int {
			return cmp.Compare(b.Bandwidth, a.Bandwidth)
		})
		for _, audio := range audios {
			if u := audio.url(); u != "" {
				return u
			}
		}
	}
	for _, d := range play.Durl {
		if d.URL != "" {
			return d.URL
		}
	}
	return ""
}

func playHeaders() map[string]string {
	return map[string]string{
		"user-agent":      desktopUserAgent,
		"accept":          "*/*",
		"accept-language": acceptLanguage,
		"referer":         "https://www.bilibili.com/",
	}
}
