package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
)

// Pagination bounds. The search API refuses to serve past the first
// thousand results regardless of page size.
const (
	perPage          = 100
	searchMaxResults = 1000
)

// searchDateFormat is the date precision the search qualifiers accept.
const searchDateFormat = "2006-01-02"

// commitListItem is the wire shape of one entry in the commit list
// endpoint. The top-level author is the GitHub account and can be null for
// unmapped email addresses.
type commitListItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
}

func (c commitListItem) username() string {
	if c.Author != nil && c.Author.Login != "" {
		return c.Author.Login
	}

	return c.Commit.Author.Name
}

// commitDetail is the wire shape of the single-commit endpoint, reduced to
// the line stats.
type commitDetail struct {
	Stats struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
}

// searchResult is the wire shape of the issue search endpoint.
type searchResult struct {
	TotalCount int          `json:"total_count"`
	Items      []searchItem `json:"items"`
}

type searchItem struct {
	Number    int       `json:"number"`
	CreatedAt time.Time `json:"created_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
	PullRequest *struct {
		MergedAt *time.Time `json:"merged_at"`
	} `json:"pull_request"`
}

// CommitUnits lists commits since the cutoff and converts them to commit
// activity units. With details enabled, each commit costs one extra
// request to resolve its addition and deletion counts.
func (c *Client) CommitUnits(
	ctx context.Context, owner, repo string, since time.Time, details bool,
) ([]activity.Unit, error) {
	items, err := c.listCommits(ctx, owner, repo, since)
	if err != nil {
		return nil, err
	}

	units := make([]activity.Unit, 0, len(items))

	for _, item := range items {
		unit := activity.Unit{
			Username: item.username(),
			Repo:     repo,
			Time:     item.Commit.Author.Date,
			Kind:     activity.KindCommit,
			CommitID: item.SHA,
		}

		if details {
			additions, deletions, detailErr := c.commitStats(ctx, owner, repo, item.SHA)
			if detailErr != nil {
				return nil, detailErr
			}

			unit.Additions = additions
			unit.Deletions = deletions
		}

		units = append(units, unit)
	}

	return units, nil
}

func (c *Client) listCommits(
	ctx context.Context, owner, repo string, since time.Time,
) ([]commitListItem, error) {
	var all []commitListItem

	for page := 1; ; page++ {
		reqURL := fmt.Sprintf("%s/repos/%s/%s/commits?since=%s&per_page=%d&page=%d",
			c.baseURL, owner, repo,
			url.QueryEscape(since.UTC().Format(time.RFC3339)), perPage, page)

		body, err := c.get(ctx, reqURL)
		if err != nil {
			return nil, fmt.Errorf("list commits %s/%s: %w", owner, repo, err)
		}

		var items []commitListItem

		err = json.Unmarshal(body, &items)
		if err != nil {
			return nil, fmt.Errorf("decode commits %s/%s: %w", owner, repo, err)
		}

		all = append(all, items...)

		if len(items) < perPage {
			return all, nil
		}
	}
}

func (c *Client) commitStats(ctx context.Context, owner, repo, sha string) (int, int, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.baseURL, owner, repo, sha)

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return 0, 0, fmt.Errorf("commit detail %s: %w", sha, err)
	}

	var detail commitDetail

	err = json.Unmarshal(body, &detail)
	if err != nil {
		return 0, 0, fmt.Errorf("decode commit detail %s: %w", sha, err)
	}

	return detail.Stats.Additions, detail.Stats.Deletions, nil
}

// PROpenedUnits finds pull requests created since the cutoff, attributed
// to the PR author at creation time.
func (c *Client) PROpenedUnits(
	ctx context.Context, owner, repo string, since time.Time,
) ([]activity.Unit, error) {
	query := fmt.Sprintf("repo:%s/%s is:pr created:>=%s",
		owner, repo, since.UTC().Format(searchDateFormat))

	items, err := c.searchPRs(ctx, query)
	if err != nil {
		return nil, err
	}

	units := make([]activity.Unit, 0, len(items))

	for _, item := range items {
		units = append(units, activity.Unit{
			Username:      item.User.Login,
			Repo:          repo,
			Time:          item.CreatedAt,
			Kind:          activity.KindPROpened,
			PullRequestID: item.Number,
		})
	}

	return units, nil
}

// PRMergedUnits finds pull requests merged since the cutoff, attributed to
// the PR author at merge time.
func (c *Client) PRMergedUnits(
	ctx context.Context, owner, repo string, since time.Time,
) ([]activity.Unit, error) {
	query := fmt.Sprintf("repo:%s/%s is:pr is:merged merged:>=%s",
		owner, repo, since.UTC().Format(searchDateFormat))

	items, err := c.searchPRs(ctx, query)
	if err != nil {
		return nil, err
	}

	units := make([]activity.Unit, 0, len(items))

	for _, item := range items {
		when := item.CreatedAt
		if item.PullRequest != nil && item.PullRequest.MergedAt != nil {
			when = *item.PullRequest.MergedAt
		}

		units = append(units, activity.Unit{
			Username:      item.User.Login,
			Repo:          repo,
			Time:          when,
			Kind:          activity.KindPRMerged,
			PullRequestID: item.Number,
		})
	}

	return units, nil
}

// PRReviewedUnits finds pull requests a user reviewed since the cutoff,
// attributed to the reviewer. Review timestamps are not exposed by the
// search API, so the PR's creation time stands in.
func (c *Client) PRReviewedUnits(
	ctx context.Context, owner, repo, user string, since time.Time,
) ([]activity.Unit, error) {
	query := fmt.Sprintf("repo:%s/%s is:pr reviewed-by:%s updated:>=%s",
		owner, repo, user, since.UTC().Format(searchDateFormat))

	items, err := c.searchPRs(ctx, query)
	if err != nil {
		return nil, err
	}

	units := make([]activity.Unit, 0, len(items))

	for _, item := range items {
		// Self-reviews do not count as review activity.
		if item.User.Login == user {
			continue
		}

		units = append(units, activity.Unit{
			Username:      user,
			Repo:          repo,
			Time:          item.CreatedAt,
			Kind:          activity.KindPRReviewed,
			PullRequestID: item.Number,
		})
	}

	return units, nil
}

func (c *Client) searchPRs(ctx context.Context, query string) ([]searchItem, error) {
	var all []searchItem

	for page := 1; len(all) < searchMaxResults; page++ {
		reqURL := c.baseURL + "/search/issues?q=" + url.QueryEscape(query) +
			"&per_page=" + strconv.Itoa(perPage) + "&page=" + strconv.Itoa(page)

		body, err := c.get(ctx, reqURL)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", query, err)
		}

		// A 422 for an unknown user or repo comes back as an empty body.
		if len(body) == 0 {
			return all, nil
		}

		var result searchResult

		err = json.Unmarshal(body, &result)
		if err != nil {
			return nil, fmt.Errorf("decode search %q: %w", query, err)
		}

		all = append(all, result.Items...)

		if len(result.Items) < perPage || len(all) >= result.TotalCount {
			return all, nil
		}
	}

	return all, nil
}
