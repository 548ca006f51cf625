package bilibili

import "github.com/sglre6355/sgrsearch/internal/json"

// envelope is the common wrapper of every Bilibili API response.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type spiData struct {
	B3 string `json:"b_3"`
	B4 string `json:"b_4"`
}

type searchData struct {
	NumResults int             `json:"numResults"`
	Page       int             `json:"page"`
	Result     json.RawMessage `json:"result"`
}

// searchResultObject is the object form of data.result.
type searchResultObject struct {
	VList []searchItem `json:"vlist"`
}

type searchItem struct {
	BVID     string `json:"bvid"`
	AID      int64  `json:"aid"`
	CID      int64  `json:"cid"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Owner    *owner `json:"owner"`
	Pic      string `json:"pic"`
	Duration any    `json:"duration"`
	Length   any    `json:"length"`
}

type owner struct {
	Name string `json:"name"`
}

type viewData struct {
	Pages []struct {
		CID int64 `json:"cid"`
	} `json:"pages"`
}

type playData struct {
	Dash *struct {
		Audio []dashAudio `json:"audio"`
	} `json:"dash"`
	Durl []struct {
		URL string `json:"url"`
	} `json:"durl"`
}

type dashAudio struct {
	Bandwidth    int64    `json:"bandwidth"`
	BaseURL      string   `json:"base_url"`
	BaseURLCamel string   `json:"baseUrl"`
	BackupURL    []string `json:"backup_url"`
	BackupCamel  []string `json:"backupUrl"`
}

func (a dashAudio) url() string {
	switch {
	case a.BaseURL != "":
		return a.BaseURL
	case a.BaseURLCamel != "":
		return a.BaseURLCamel
	case len(a.BackupURL) > 0:
		return a.BackupURL[0]
	case len(a.BackupCamel) > 0:
		return a.BackupCamel[0]
	default:
		return ""
	}
}
