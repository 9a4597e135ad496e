package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleBooksBase = "https://www.googleapis.com/books/v1/volumes"

type googleBooksVolumesResp struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title       string   `json:"title"`
			Authors     []string `json:"authors"`
			Description string   `json:"description"`
			Language    string   `json:"language"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// DescriptionFetcher looks up book descriptions in the Google Books volumes API.
type DescriptionFetcher struct {
	client  *http.Client
	baseURL string
}

// NewDescriptionFetcher uses a short timeout so a hung lookup doesn't stall a seed run.
func NewDescriptionFetcher() *DescriptionFetcher {
	return &DescriptionFetcher{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: googleBooksBase,
	}
}

// WithBaseURL points the fetcher at another endpoint.
func (f *DescriptionFetcher) WithBaseURL(u string) *DescriptionFetcher {
	f.baseURL = u
	return f
}

// FetchDescription returns the first non-empty description for title by author, or "" when nothing matched.
func (f *DescriptionFetcher) FetchDescription(ctx context.Context, title, author string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("title is required")
	}
	q := "intitle:" + title
	if a := strings.TrimSpace(author); a != "" {
		q += "+inauthor:" + a
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("maxResults", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google books returned %d", resp.StatusCode)
	}
	var data googleBooksVolumesResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	for _, item := range data.Items {
		if d := strings.TrimSpace(item.VolumeInfo.Description); d != "" {
			return d, nil
		}
	}
	return "", nil
}
