// Package calendly lists scheduled events of a Calendly organization.
package calendly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/ryanparsons7/calendly-notion/internal/source"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL        = "https://api.calendly.com"
	DefaultPageSize       = 100
	DefaultTicketQuestion = "Ticket Number"

	timeLayout = "2006-01-02T15:04:05.000000Z"
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

type Config struct {
	BaseURL        string
	Token          string
	PageSize       int
	TicketQuestion string
}

type Client struct {
	http           *http.Client
	baseURL        string
	pageSize       int
	ticketQuestion string
}

type listParams struct {
	Organization string `url:"organization"`
	Status       string `url:"status"`
	Count        int    `url:"count"`
	Sort         string `url:"sort"`
	MinStartTime string `url:"min_start_time"`
	MaxStartTime string `url:"max_start_time"`
	PageToken    string `url:"page_token,omitempty"`
}

type pagination struct {
	NextPageToken *string `json:"next_page_token"`
}

type scheduledEvent struct {
	URI              string `json:"uri"`
	Name             string `json:"name"`
	Status           string `json:"status"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	EventMemberships []struct {
		User      string `json:"user"`
		UserEmail string `json:"user_email"`
		UserName  string `json:"user_name"`
	} `json:"event_memberships"`
	CalendarEvent *struct {
		Kind       string `json:"kind"`
		ExternalID string `json:"external_id"`
	} `json:"calendar_event"`
}

type eventsResponse struct {
	Collection []scheduledEvent `json:"collection"`
	Pagination pagination       `json:"pagination"`
}

type invitee struct {
	Name                string `json:"name"`
	Email               string `json:"email"`
	QuestionsAndAnswers []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"questions_and_answers"`
}

type inviteesResponse struct {
	Collection []invitee `json:"collection"`
}

func New(config Config) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token, TokenType: "Bearer"})
	return NewWithHTTPClient(config, oauth2.NewClient(context.Background(), ts))
}

// NewWithHTTPClient uses httpClient as is, it must authorize requests itself.
func NewWithHTTPClient(config Config, httpClient *http.Client) *Client {
	c := &Client{
		http:           httpClient,
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		pageSize:       config.PageSize,
		ticketQuestion: config.TicketQuestion,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.ticketQuestion == "" {
		c.ticketQuestion = DefaultTicketQuestion
	}
	return c
}

// ListEvents returns active events of the organization starting within [from, to].
func (c *Client) ListEvents(_ context.Context, orgReference string, from, to time.Time) (source.Iterator, error) {
	params := listParams{
		Organization: orgReference,
		Status:       "active",
		Count:        c.pageSize,
		Sort:         "start_time:asc",
		MinStartTime: from.UTC().Format(timeLayout),
		MaxStartTime: to.UTC().Format(timeLayout),
	}
	return source.NewPager(func(ctx context.Context, token string) (source.Page, error) {
		params.PageToken = token
		return c.fetchPage(ctx, params)
	}), nil
}

func (c *Client) fetchPage(ctx context.Context, params listParams) (source.Page, error) {
	values, err := query.Values(params)
	if err != nil {
		return source.Page{}, fmt.Errorf("failed to encode query: %w", err)
	}
	var resp eventsResponse
	if err := c.get(ctx, "/scheduled_events", values, &resp); err != nil {
		return source.Page{}, err
	}

	page := source.Page{Events: make([]source.Event, 0, len(resp.Collection))}
	for _, se := range resp.Collection {
		e, err := c.toEvent(ctx, se)
		if err != nil {
			return source.Page{}, err
		}
		page.Events = append(page.Events, e)
	}
	if resp.Pagination.NextPageToken != nil {
		page.NextToken = *resp.Pagination.NextPageToken
	}
	log.WithField("events", len(page.Events)).WithField("more", page.NextToken != "").
		Debug("calendly page fetched")
	return page, nil
}

func (c *Client) toEvent(ctx context.Context, se scheduledEvent) (source.Event, error) {
	var id string
	if se.URI != "" {
		id = path.Base(se.URI)
	}
	e := source.Event{
		ID: id,
		Raw: map[string]interface{}{
			"uri":    se.URI,
			"name":   se.Name,
			"status": se.Status,
		},
	}
	// Malformed times are left zero and rejected by the mapper for this event only.
	e.StartTime, _ = time.Parse(time.RFC3339Nano, se.StartTime)
	e.EndTime, _ = time.Parse(time.RFC3339Nano, se.EndTime)
	if len(se.EventMemberships) > 0 {
		e.HostEmail = se.EventMemberships[0].UserEmail
	}
	if se.CalendarEvent != nil {
		e.Raw["external_id"] = se.CalendarEvent.ExternalID
	}
	if id == "" {
		return e, nil
	}

	var resp inviteesResponse
	err := c.get(ctx, "/scheduled_events/"+url.PathEscape(id)+"/invitees", nil, &resp)
	if err != nil {
		if ctx.Err() != nil {
			return source.Event{}, ctx.Err()
		}
		log.WithField("event", id).Warnf("failed to fetch invitees: %v", err)
		e.Err = fmt.Errorf("failed to fetch invitees of %q: %w", id, err)
		return e, nil
	}
	if len(resp.Collection) > 0 {
		e.InviteeName = resp.Collection[0].Name
		e.InviteeEmail = resp.Collection[0].Email
	}
	e.TicketID = c.ticketAnswer(resp.Collection)
	return e, nil
}

func (c *Client) ticketAnswer(invitees []invitee) string {
	for _, inv := range invitees {
		for _, qa := range inv.QuestionsAndAnswers {
			if qa.Question == c.ticketQuestion {
				return strings.TrimSpace(qa.Answer)
			}
		}
	}
	return ""
}

func (c *Client) get(ctx context.Context, p string, values url.Values, out interface{}) error {
	u := c.baseURL + p
	if len(values) > 0 {
		u += "?" + values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to calendly failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: GET %s: %d %s", ErrUnexpectedStatus, p, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode calendly response: %w", err)
	}
	return nil
}
