package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	youtubeApiKeyFlag    = "youtube-api-key"
	youtubeApiSecureFlag = "youtube-api-secure"
	youtubeApiHostFlag   = "youtube-api-host"
	youtubeApiPortFlag   = "youtube-api-port"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   youtubeApiHostFlag,
			Usage:  "youtube api host",
			EnvVar: "YOUTUBE_API_HOST",
			Value:  "www.googleapis.com",
		},
		cli.IntFlag{
			Name:   youtubeApiPortFlag,
			Usage:  "youtube api port",
			EnvVar: "YOUTUBE_API_PORT",
			Value:  443,
		},
		cli.BoolTFlag{
			Name:   youtubeApiSecureFlag,
			Usage:  "youtube api secure (https)",
			EnvVar: "YOUTUBE_API_SECURE",
		},
		cli.StringFlag{
			Name:   youtubeApiKeyFlag,
			Usage:  "youtube api key",
			Value:  "",
			EnvVar: "YOUTUBE_API_KEY",
		},
	)
}

// maxResults is the upper bound the search endpoint accepts per page.
const maxResults = 50

var ErrNoQuery = errors.New("no search query provided")

type SearchResult struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"title"`
	Uploader  string `json:"uploader"`
	Thumbnail string `json:"thumbnail"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
		Thumbnails   map[string]struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"snippet"`
}

type Api struct {
	url            string
	cl             *http.Client
	prepareRequest func(r *http.Request) (*http.Request, error)
}

func New(c *cli.Context, cl *http.Client) *Api {
	host := c.String(youtubeApiHostFlag)
	port := c.Int(youtubeApiPortFlag)
	secure := c.BoolT(youtubeApiSecureFlag)
	key := c.String(youtubeApiKeyFlag)
	if key == "" {
		log.Warn("no youtube api key provided, search requests will be rejected upstream")
	}
	protocol := "http"
	if secure {
		protocol = "https"
	}
	u := fmt.Sprintf("%v://%v:%v", protocol, host, port)
	prepareRequest := func(r *http.Request) (*http.Request, error) {
		q := r.URL.Query()
		q.Set("key", key)
		r.URL.RawQuery = q.Encode()
		return r, nil
	}
	log.Infof("youtube api endpoint %v", u)
	return &Api{
		url:            u,
		cl:             cl,
		prepareRequest: prepareRequest,
	}
}

// Search issues a single search call and maps the returned items. Items
// without a video id are skipped, upstream order is preserved.
func (api *Api) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrNoQuery
	}

	reqURL := fmt.Sprintf("%s/youtube/v3/search", api.url)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	q := req.URL.Query()
	q.Set("part", "snippet")
	q.Set("q", query)
	q.Set("type", "video")
	q.Set("maxResults", strconv.Itoa(maxResults))
	req.URL.RawQuery = q.Encode()

	req, err = api.prepareRequest(req)
	if err != nil {
		return nil, errors.Wrap(err, "prepare request")
	}

	resp, err := api.cl.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, errors.Errorf("youtube api error: %v - %v", resp.StatusCode, string(body))
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	results := make([]SearchResult, 0, len(data.Items))
	for _, item := range data.Items {
		if item.ID.VideoID == "" {
			continue
		}
		res := SearchResult{
			VideoID:  item.ID.VideoID,
			Title:    item.Snippet.Title,
			Uploader: item.Snippet.ChannelTitle,
		}
		if th, ok := item.Snippet.Thumbnails["medium"]; ok {
			res.Thumbnail = th.URL
		}
		results = append(results, res)
	}
	return results, nil
}
