// Package notion stores records as pages of a Notion database.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ryanparsons7/calendly-notion/internal/mapper"
	"github.com/ryanparsons7/calendly-notion/internal/store"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

type Config struct {
	BaseURL    string
	Token      string
	Version    string
	Properties Properties
	// ResolvePeople assigns pages to the workspace user whose e-mail matches the meeting host.
	ResolvePeople bool
}

type Storage struct {
	http          *http.Client
	baseURL       string
	version       string
	props         Properties
	resolvePeople bool
	users         map[string]string
}

func New(config Config) *Storage {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token, TokenType: "Bearer"})
	return NewWithHTTPClient(config, oauth2.NewClient(context.Background(), ts))
}

func NewWithHTTPClient(config Config, httpClient *http.Client) *Storage {
	s := &Storage{
		http:          httpClient,
		baseURL:       strings.TrimRight(config.BaseURL, "/"),
		version:       config.Version,
		props:         config.Properties,
		resolvePeople: config.ResolvePeople,
		users:         map[string]string{},
	}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.version == "" {
		s.version = DefaultVersion
	}
	defaults := DefaultProperties()
	if s.props.Key == "" {
		s.props.Key = defaults.Key
	}
	if s.props.Summary == "" {
		s.props.Summary = defaults.Summary
	}
	if s.props.People == "" {
		s.props.People = defaults.People
	}
	if s.props.Link == "" {
		s.props.Link = defaults.Link
	}
	if s.props.Date == "" {
		s.props.Date = defaults.Date
	}
	if s.props.Selects == nil {
		s.props.Selects = defaults.Selects
	}
	return s
}

// Connect loads workspace users once so pages can be assigned to them.
func (s *Storage) Connect(ctx context.Context) error {
	if !s.resolvePeople {
		return nil
	}
	users, err := s.listUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workspace users: %w", err)
	}
	s.users = users
	log.WithField("users", len(users)).Debug("notion users loaded")
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) FindByKey(ctx context.Context, databaseID string, key string) (store.Record, bool, error) {
	var resp queryResponse
	err := s.do(ctx, http.MethodPost, "/v1/databases/"+url.PathEscape(databaseID)+"/query", buildQuery(s.props, key), &resp)
	if err != nil {
		return store.Record{}, false, err
	}
	if len(resp.Results) == 0 {
		return store.Record{}, false, nil
	}
	if len(resp.Results) > 1 {
		log.WithField("key", key).Warn("database holds several pages with the same key")
	}
	return resp.Results[0].toRecord(s.props), true, nil
}

func (s *Storage) Create(ctx context.Context, databaseID string, r *store.Record) error {
	if r.ExternalKey == "" {
		return store.ErrEmptyKey
	}
	if r.EndTime.Before(r.StartTime) {
		return fmt.Errorf("end time should not be before start time: %w", store.ErrIncorrectTime)
	}

	var created page
	err := s.do(ctx, http.MethodPost, "/v1/pages", buildCreate(s.props, databaseID, *r, s.person(*r)), &created)
	if err != nil {
		return err
	}
	r.RecordID = created.ID
	return nil
}

func (s *Storage) Update(ctx context.Context, _ string, r store.Record) error {
	if r.RecordID == "" {
		return fmt.Errorf("page of %q is unknown: %w", r.ExternalKey, store.ErrNotFound)
	}
	if r.EndTime.Before(r.StartTime) {
		return fmt.Errorf("end time should not be before start time: %w", store.ErrIncorrectTime)
	}
	return s.do(ctx, http.MethodPatch, "/v1/pages/"+url.PathEscape(r.RecordID), buildUpdate(s.props, r), nil)
}

func (s *Storage) person(r store.Record) string {
	email, _ := r.Properties[mapper.PropHostEmail].(string)
	if email == "" {
		return ""
	}
	id, ok := s.users[strings.ToLower(email)]
	if !ok && s.resolvePeople {
		log.WithField("email", email).Info("no workspace user with the host e-mail, person left empty")
	}
	return id
}

type usersResponse struct {
	Results []struct {
		ID     string `json:"id"`
		Type   string `json:"type"`
		Person *struct {
			Email string `json:"email"`
		} `json:"person"`
	} `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

func (s *Storage) listUsers(ctx context.Context) (map[string]string, error) {
	users := map[string]string{}
	cursor := ""
	for {
		p := "/v1/users?page_size=100"
		if cursor != "" {
			p += "&start_cursor=" + url.QueryEscape(cursor)
		}
		var resp usersResponse
		if err := s.do(ctx, http.MethodGet, p, nil, &resp); err != nil {
			return nil, err
		}
		for _, u := range resp.Results {
			if u.Person == nil || u.Person.Email == "" {
				continue
			}
			users[strings.ToLower(u.Person.Email)] = u.ID
		}
		if !resp.HasMore || resp.NextCursor == nil {
			return users, nil
		}
		cursor = *resp.NextCursor
	}
}

func (s *Storage) do(ctx context.Context, method string, p string, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+p, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", s.version)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to notion failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, p, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode notion response: %w", err)
	}
	return nil
}
