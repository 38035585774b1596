// Package ftcscout is a read-only client for the FTCScout competition-data
// API, used by the composition root to enrich analytics output with team
// metadata and event/match schedules.
package ftcscout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cherriae/FTC-Castle/pkg/logger"
)

const (
	defaultBaseURL = "https://api.ftcscout.org"
	requestTimeout = 5 * time.Second
)

// Team is competition-team metadata.
type Team struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	SchoolName string `json:"schoolName"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	RookieYear int    `json:"rookieYear"`
}

// QuickStats is a team's season performance summary.
type QuickStats struct {
	Number int `json:"number"`
	Season int `json:"season"`
	Tot    struct {
		Value float64 `json:"value"`
		Rank  int     `json:"rank"`
	} `json:"tot"`
	Auto struct {
		Value float64 `json:"value"`
		Rank  int     `json:"rank"`
	} `json:"auto"`
	DC struct {
		Value float64 `json:"value"`
		Rank  int     `json:"rank"`
	} `json:"dc"`
	EG struct {
		Value float64 `json:"value"`
		Rank  int     `json:"rank"`
	} `json:"eg"`
}

// Event is one competition event from the season search.
type Event struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Season   int    `json:"season"`
	Type     string `json:"type"`
	Remote   bool   `json:"remote"`
	Location struct {
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"location"`
	RegionCode string `json:"regionCode"`
}

// Match is one scheduled match in an event.
type Match struct {
	ID          int    `json:"id"`
	MatchNum    int    `json:"matchNum"`
	Description string `json:"description"`
	TournLevel  string `json:"tournamentLevel"`
	Teams       []struct {
		TeamNumber int    `json:"teamNumber"`
		Alliance   string `json:"alliance"`
		Station    string `json:"station"`
	} `json:"teams"`
}

// Client talks to the FTCScout REST and GraphQL endpoints. Lookups are
// cached per key for the client's lifetime; competition data moves slowly
// enough that staleness is acceptable.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger

	mu         sync.RWMutex
	teamCache  map[int]*Team
	eventCache map[int][]Event
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New builds an FTCScout client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		http:       &http.Client{Timeout: requestTimeout},
		log:        logger.Get(),
		teamCache:  make(map[int]*Team),
		eventCache: make(map[int][]Event),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ftcscout: %s returned %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Team fetches competition-team metadata by number.
func (c *Client) Team(ctx context.Context, teamNumber int) (*Team, error) {
	c.mu.RLock()
	cached, ok := c.teamCache[teamNumber]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var t Team
	if err := c.getJSON(ctx, fmt.Sprintf("/rest/v1/teams/%d", teamNumber), &t); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.teamCache[teamNumber] = &t
	c.mu.Unlock()
	return &t, nil
}

// QuickStats fetches a team's season performance summary.
func (c *Client) QuickStats(ctx context.Context, teamNumber, season int) (*QuickStats, error) {
	path := fmt.Sprintf("/rest/v1/teams/%d/quick-stats", teamNumber)
	if season > 0 {
		path = fmt.Sprintf("%s?season=%d", path, season)
	}
	var qs QuickStats
	if err := c.getJSON(ctx, path, &qs); err != nil {
		return nil, err
	}
	return &qs, nil
}

// EventMatches fetches the match schedule for an event.
func (c *Client) EventMatches(ctx context.Context, season int, eventCode string) ([]Match, error) {
	var matches []Match
	path := fmt.Sprintf("/rest/v1/events/%d/%s/matches", season, eventCode)
	if err := c.getJSON(ctx, path, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

const eventsSearchQuery = `
query EventsSearch($season: Int!, $hasMatches: Boolean, $searchText: String) {
  eventsSearch(season: $season, hasMatches: $hasMatches, searchText: $searchText) {
    code
    name
    start
    end
    season
    type
    remote
    location { city state country }
    regionCode
  }
}`

// Events searches a season's events via the GraphQL endpoint, sorted by
// start date.
func (c *Client) Events(ctx context.Context, season int, searchText string) ([]Event, error) {
	if searchText == "" {
		c.mu.RLock()
		cached, ok := c.eventCache[season]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	variables := map[string]any{"season": season, "hasMatches": true}
	if searchText != "" {
		variables["searchText"] = searchText
	}
	body, err := json.Marshal(map[string]any{
		"query":     eventsSearchQuery,
		"variables": variables,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ftcscout: graphql returned %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			EventsSearch []Event `json:"eventsSearch"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("ftcscout: graphql error: %s", payload.Errors[0].Message)
	}

	events := payload.Data.EventsSearch
	sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })

	if searchText == "" {
		c.mu.Lock()
		c.eventCache[season] = events
		c.mu.Unlock()
	}
	return events, nil
}

// TeamName implements the metadata lookup used by comparison output. An
// unreachable API degrades to an empty name.
func (c *Client) TeamName(teamNumber int) string {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	t, err := c.Team(ctx, teamNumber)
	if err != nil {
		c.log.Warn(ctx, "team metadata lookup failed",
			logger.Int("team", teamNumber),
			logger.Error(err))
		return ""
	}
	return t.Name
}
