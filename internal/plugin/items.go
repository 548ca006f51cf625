package plugin

import (
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// Keys of Track.BackendMeta carried through the wire item.
const (
	MetaSongID    = "songId"
	MetaAlbumName = "albumName"
	MetaBVID      = "bvid"
	MetaAID       = "aid"
	MetaCID       = "cid"
)

// Item is the wire form of one search result. Plugins disagree on field names,
// so the alternate names are accepted when decoding.
type Item struct {
	ID       FlexString `json:"id,omitempty"`
	Name     string     `json:"name,omitempty"`
	Title    string     `json:"title,omitempty"`
	Singer   string     `json:"singer,omitempty"`
	Artist   string     `json:"artist,omitempty"`
	Author   string     `json:"author,omitempty"`
	Source   string     `json:"source,omitempty"`
	Interval any        `json:"interval,omitempty"`
	Duration any        `json:"duration,omitempty"`
	Pic      string     `json:"pic,omitempty"`
	Artwork  string     `json:"artwork,omitempty"`
	BVID     string     `json:"bvid,omitempty"`
	AID      FlexString `json:"aid,omitempty"`
	CID      FlexString `json:"cid,omitempty"`
	Meta     ItemMeta   `json:"meta"`
}

// ItemMeta holds the identifiers needed to resolve an Item later.
type ItemMeta struct {
	SongID     FlexString                `json:"songId,omitempty"`
	AlbumName  string                    `json:"albumName,omitempty"`
	PicURL     string                    `json:"picUrl,omitempty"`
	PageURL    string                    `json:"pageUrl,omitempty"`
	Qualitys   []Quality                 `json:"qualitys,omitempty"`
	QualityMap map[string]map[string]any `json:"_qualitys,omitempty"`
	BVID       string                    `json:"bvid,omitempty"`
	AID        FlexString                `json:"aid,omitempty"`
	CID        FlexString                `json:"cid,omitempty"`
}

// Quality is one wire quality option. A nil Size encodes as null.
type Quality struct {
	Type string  `json:"type"`
	Size *string `json:"size"`
}

// NormalizeItem converts a wire item into a Track of source.
func NormalizeItem(source domain.SourceID, item Item) *domain.Track {
	bvid := firstNonEmpty(item.Meta.BVID, item.BVID)
	aid := firstNonEmpty(string(item.Meta.AID), string(item.AID))
	cid := firstNonEmpty(string(item.Meta.CID), string(item.CID))

	title := domain.StripHighlight(firstNonEmpty(item.Name, item.Title))
	artist := firstNonEmpty(item.Singer, item.Artist, item.Author)
	artwork := domain.AbsoluteURL(firstNonEmpty(item.Meta.PicURL, item.Pic, item.Artwork))

	var id domain.TrackID
	switch {
	case item.ID != "":
		id = domain.TrackID(item.ID)
	case firstNonEmpty(bvid, aid, cid) != "":
		id = domain.TrackID(string(source) + "_" + firstNonEmpty(bvid, aid, cid))
	default:
		id = domain.StableID(source, title, artist, artwork)
	}

	duration := item.Interval
	if duration == nil || duration == "" {
		duration = item.Duration
	}

	qualities := make([]domain.QualityOption, 0, len(item.Meta.Qualitys))
	for _, q := range item.Meta.Qualitys {
		if q.Type == "" {
			continue
		}
		opt := domain.QualityOption{Type: q.Type}
		if q.Size != nil {
			opt.Size = *q.Size
		}
		qualities = append(qualities, opt)
	}
	if len(qualities) == 0 {
		qualities = []domain.QualityOption{{Type: domain.DefaultQuality}}
	}

	meta := make(map[string]string)
	setMeta(meta, MetaSongID, firstNonEmpty(string(item.Meta.SongID), bvid, aid))
	setMeta(meta, MetaAlbumName, item.Meta.AlbumName)
	setMeta(meta, MetaBVID, bvid)
	setMeta(meta, MetaAID, aid)
	setMeta(meta, MetaCID, cid)

	return &domain.Track{
		ID:              id,
		Title:           title,
		Artist:          artist,
		SourceID:        source,
		DurationSeconds: domain.ParseDurationSeconds(duration),
		ArtworkURL:      artwork,
		PageURL:         item.Meta.PageURL,
		Qualities:       qualities,
		BackendMeta:     meta,
	}
}

// ItemFromTrack converts a Track into its wire form.
func ItemFromTrack(track *domain.Track) Item {
	item := Item{
		ID:     FlexString(track.ID),
		Name:   track.Title,
		Singer: track.Artist,
		Source: string(track.SourceID),
		Meta: ItemMeta{
			SongID:     FlexString(firstNonEmpty(track.Meta(MetaSongID), string(track.ID))),
			AlbumName:  track.Meta(MetaAlbumName),
			PicURL:     track.ArtworkURL,
			PageURL:    track.PageURL,
			QualityMap: make(map[string]map[string]any),
			BVID:       track.Meta(MetaBVID),
			AID:        FlexString(track.Meta(MetaAID)),
			CID:        FlexString(track.Meta(MetaCID)),
		},
	}

	if track.DurationSeconds != nil {
		item.Interval = formatInterval(*track.DurationSeconds)
	}

	qualities := track.Qualities
	if len(qualities) == 0 {
		qualities = []domain.QualityOption{{Type: domain.DefaultQuality}}
	}
	for _, q := range qualities {
		wire := Quality{Type: q.Type}
		if q.Size != "" {
			size := q.Size
			wire.Size = &size
		}
		item.Meta.Qualitys = append(item.Meta.Qualitys, wire)
		item.Meta.QualityMap[q.Type] = map[string]any{}
	}

	return item
}

// formatInterval formats seconds as m:ss, or h:mm:ss past an hour.
func formatInterval(seconds int) string {
	track := domain.Track{DurationSeconds: &seconds}
	formatted := track.FormattedDuration()
	if len(formatted) > 4 && formatted[0] == '0' {
		return formatted[1:]
	}
	return formatted
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func setMeta(meta map[string]string, key, value string) {
	if value != "" {
		meta[key] = value
	}
}
