package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrInvalidURL         = errors.New("invalid youtube url")
	ErrVideoNotFound      = errors.New("video not found")
	ErrVideoNotEmbeddable = errors.New("video is not embeddable")
)

type VideoData struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type Client struct {
	httpClient *http.Client
	oembedURL  string
	pageURL    string
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURLs overrides the oEmbed endpoint and the short link prefix the
// page fallback fetches from.
func WithBaseURLs(oembedURL, pageURL string) ClientOption {
	return func(c *Client) {
		c.oembedURL = oembedURL
		c.pageURL = pageURL
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		oembedURL:  "https://www.youtube.com/oembed",
		pageURL:    "https://youtu.be/",
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get fetches metadata for a video url or id. Videos that refuse oEmbed are
// scraped from their page instead.
func (c *Client) Get(ctx context.Context, videoURL string) (*VideoData, error) {
	videoID, ok := ExtractID(videoURL)
	if !ok {
		return nil, ErrInvalidURL
	}

	videoData, err := c.getWithEmbed(ctx, videoID)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = c.getFromPage(ctx, videoID)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	return videoData, nil
}
