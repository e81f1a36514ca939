package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// defaultUsageDays is the reporting window used when the caller passes
// days <= 0.
const defaultUsageDays = 30

// maxUsageDays caps the reporting window the backend will aggregate.
const maxUsageDays = 365

// Usage returns aggregate activity statistics for the last days days.
func (c *Client) Usage(ctx context.Context, days int) (*UsageStatistics, error) {
	if days <= 0 {
		days = defaultUsageDays
	}
	if days > maxUsageDays {
		return nil, fmt.Errorf("usage window too large: %d days (max %d)", days, maxUsageDays)
	}

	var stats UsageStatistics
	err := c.doJSON(ctx, &request{
		method: http.MethodGet,
		path:   "/users/me/usage",
		query:  url.Values{"days": {strconv.Itoa(days)}},
	}, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
