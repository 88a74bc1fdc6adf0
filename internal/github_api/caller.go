// Package githubapi provides the caller for the GitHub search API.
// It fetches repository data filtered by topic, handles token
// authentication and reacts to the rate-limit response headers.

package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/csmol/thrivescraper/cfg"
	"github.com/csmol/thrivescraper/pkg/log"
)

type Caller struct {
	Logger  log.Logger
	Config  *cfg.Config
	Page    int
	PerPage int
	client  *http.Client
}

// Mapping response
type RawResponse struct {
	TotalCount        int            `json:"total_count"`
	IncompleteResults bool           `json:"incomplete_results"`
	Items             []RepoResponse `json:"items"`
}

func NewCaller(logger log.Logger, config *cfg.Config, page int, perPage int) *Caller {
	return &Caller{
		Logger:  logger,
		Config:  config,
		Page:    page,
		PerPage: perPage,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HandleRateLimit inspects the rate-limit headers of a response and
// reports whether the caller must back off, with the reset time in the
// returned error.
func (c *Caller) HandleRateLimit(ctx context.Context, resp *http.Response) (bool, error) {
	rateRemaining := resp.Header.Get("X-RateLimit-Remaining")

	if resp.StatusCode == http.StatusForbidden && rateRemaining == "0" {
		resetTimeStr := resp.Header.Get("X-RateLimit-Reset")
		resetTimeInt, err := strconv.ParseInt(resetTimeStr, 10, 64)

		if err != nil {
			waitTime := time.Duration(c.Config.GithubApi.RateLimitResetMin) * time.Minute
			c.Logger.Warn(ctx, "Rate limit hit and no usable reset header, waiting %v", waitTime)
			return true, fmt.Errorf("api rate limit reached, wait %v", waitTime)
		}

		resetTime := time.Unix(resetTimeInt, 0)
		waitTime := time.Until(resetTime)
		if waitTime < 0 {
			waitTime = time.Duration(c.Config.GithubApi.RateLimitResetMin) * time.Minute
		}

		c.Logger.Warn(ctx, "Rate limit hit, need to wait %v until %v",
			waitTime.Round(time.Second), resetTime.Format(time.RFC3339))

		return true, fmt.Errorf("api rate limit reached, resets at %v", resetTime.Format(time.RFC3339))
	}

	return false, nil
}

// Search fetches every repository matching the topic filter, paging
// through the search results, and returns them keyed by full name.
// The search API caps results at 1000 per query.
func (c *Caller) Search(ctx context.Context, topic string) (map[string]RepoResponse, error) {
	result := make(map[string]RepoResponse)

	perPage := c.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	page := c.Page
	if page <= 0 {
		page = 1
	}

	for {
		items, total, err := c.callPage(ctx, topic, page, perPage)
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			result[item.FullName] = item
		}

		if len(items) == 0 || len(result) >= total {
			break
		}
		if page*perPage >= 1000 {
			c.Logger.Warn(ctx, "The search API only serves the first 1000 results, stopping at page %d", page)
			break
		}
		page++
	}

	return result, nil
}

func (c *Caller) callPage(ctx context.Context, topic string, page, perPage int) ([]RepoResponse, int, error) {
	fullUrl := fmt.Sprintf("%s?q=%s&per_page=%d&page=%d",
		c.Config.GithubApi.SearchUrl,
		url.QueryEscape("topic:"+topic),
		perPage, page,
	)
	c.Logger.Info(ctx, "Calling GitHub API: %s", fullUrl)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
	if err != nil {
		c.Logger.Error(ctx, "Cannot build request: %v", err)
		return nil, 0, err
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.Config.GithubApi.AccessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s", c.Config.GithubApi.AccessToken))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.Logger.Error(ctx, "Cannot send request: %v", err)
		return nil, 0, err
	}
	defer resp.Body.Close()

	c.Logger.Debug(ctx, "Rate limit remaining: %s", resp.Header.Get("X-RateLimit-Remaining"))

	isRateLimited, rateLimitErr := c.HandleRateLimit(ctx, resp)
	if isRateLimited {
		return nil, 0, rateLimitErr
	}

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected response status: %v", resp.Status)
	}

	rawResponse := &RawResponse{}
	if err := json.NewDecoder(resp.Body).Decode(rawResponse); err != nil {
		return nil, 0, err
	}

	c.Logger.Info(ctx, "Topic %q: %d repositories total, page %d, %d items received",
		topic, rawResponse.TotalCount, page, len(rawResponse.Items))

	return rawResponse.Items, rawResponse.TotalCount, nil
}
