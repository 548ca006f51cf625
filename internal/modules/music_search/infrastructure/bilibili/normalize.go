package bilibili

import (
	"strconv"

	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// Keys of Track.BackendMeta set by this source.
const (
	MetaBVID = "bvid"
	MetaAID  = "aid"
	MetaCID  = "cid"
)

const unknownUploader = "Unknown uploader"

func normalizeItem(item searchItem) *domain.Track {
	aid := formatID(item.AID)
	cid := formatID(item.CID)

	artist := item.Author
	if artist == "" && item.Owner != nil {
		artist = item.Owner.Name
	}
	if artist == "" {
		artist = unknownUploader
	}

	duration := item.Duration
	if duration == nil {
		duration = item.Length
	}

	title := domain.StripHighlight(item.Title)
	artwork := domain.AbsoluteURL(item.Pic)

	meta := make(map[string]string, 3)
	if item.BVID != "" {
		meta[MetaBVID] = item.BVID
	}
	if aid != "" {
		meta[MetaAID] = aid
	}
	if cid != "" {
		meta[MetaCID] = cid
	}

	return &domain.Track{
		ID:              trackID(item.BVID, aid, cid, title, artist, artwork),
		Title:           title,
		Artist:          artist,
		SourceID:        SourceID,
		DurationSeconds: domain.ParseDurationSeconds(duration),
		ArtworkURL:      artwork,
		PageURL:         PageURL(item.BVID, aid),
		Qualities:       []domain.QualityOption{{Type: domain.DefaultQuality}},
		BackendMeta:     meta,
	}
}

// trackID prefers the video's native identifiers and falls back to a hash of
// the visible fields, so repeated searches yield the same ID.
func trackID(bvid, aid, cid string, fallback ...string) domain.TrackID {
	switch {
	case bvid != "":
		return domain.TrackID(bvid)
	case aid != "":
		return domain.TrackID(aid)
	case cid != "":
		return domain.TrackID("bi_" + cid)
	default:
		return domain.StableID(SourceID, fallback...)
	}
}

// PageURL returns the video page of a track, or empty string without identifiers.
func PageURL(bvid, aid string) string {
	switch {
	case bvid != "":
		return "https://www.bilibili.com/video/" + bvid
	case aid != "":
		return "https://www.bilibili.com/video/av" + aid
	default:
		return ""
	}
}

func formatID(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
