package notion

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/store"
)

const (
	dateOnlyLayout = "2006-01-02"

	// PropPersonID holds the workspace user a found page is assigned to.
	PropPersonID = "person_id"
)

// Properties names the database columns records are written to.
type Properties struct {
	Key     string
	Summary string
	People  string
	Link    string
	Date    string
	// Selects are static select values set on every created page.
	Selects []Select
}

// Select sets the select property Property to Option. It is a list entry
// rather than a map key since config keys are case-insensitive.
type Select struct {
	Property string
	Option   string
}

func DefaultProperties() Properties {
	return Properties{
		Key:     "Event ID",
		Summary: "Summary",
		People:  "Person(s)",
		Link:    "Ticket URL",
		Date:    "Date & Time (Local)",
		Selects: []Select{
			{Property: "Shadow Friendly?", Option: "Unknown"},
			{Property: "Status", Option: "Upcoming Call"},
		},
	}
}

type textContent struct {
	Content string `json:"content"`
}

type richText struct {
	Type      string      `json:"type"`
	Text      textContent `json:"text"`
	PlainText string      `json:"plain_text,omitempty"`
}

type dateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end"`
	TimeZone *string `json:"time_zone"`
}

type selectValue struct {
	Name string `json:"name"`
}

type userRef struct {
	ID string `json:"id"`
}

type propertyValue struct {
	Type     string       `json:"type,omitempty"`
	Title    []richText   `json:"title,omitempty"`
	RichText []richText   `json:"rich_text,omitempty"`
	People   []userRef    `json:"people,omitempty"`
	URL      *string      `json:"url,omitempty"`
	Date     *dateValue   `json:"date,omitempty"`
	Select   *selectValue `json:"select,omitempty"`
	// clearURL writes an explicit null url, which empties the property on update.
	clearURL bool
}

func (v propertyValue) MarshalJSON() ([]byte, error) {
	if v.clearURL {
		return []byte(`{"url":null}`), nil
	}
	type plain propertyValue
	return json.Marshal(plain(v))
}

type parent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id"`
}

type pageRequest struct {
	Parent     *parent                  `json:"parent,omitempty"`
	Properties map[string]propertyValue `json:"properties"`
}

type textFilter struct {
	Equals string `json:"equals"`
}

type filter struct {
	Property string     `json:"property"`
	Title    textFilter `json:"title"`
}

type queryRequest struct {
	Filter   filter `json:"filter"`
	PageSize int    `json:"page_size"`
}

type page struct {
	ID         string                   `json:"id"`
	Properties map[string]propertyValue `json:"properties"`
}

type queryResponse struct {
	Results []page `json:"results"`
}

func text(s string) []richText {
	return []richText{{Type: "text", Text: textContent{Content: s}}}
}

func buildQuery(props Properties, key string) queryRequest {
	return queryRequest{
		Filter:   filter{Property: props.Key, Title: textFilter{Equals: key}},
		PageSize: 1,
	}
}

func buildCreate(props Properties, databaseID string, r store.Record, personID string) pageRequest {
	req := buildUpdate(props, r)
	req.Parent = &parent{Type: "database_id", DatabaseID: databaseID}
	if r.Link == nil {
		delete(req.Properties, props.Link)
	}
	req.Properties[props.Key] = propertyValue{Title: text(r.ExternalKey)}
	if personID != "" {
		req.Properties[props.People] = propertyValue{People: []userRef{{ID: personID}}}
	}
	for _, sel := range props.Selects {
		req.Properties[sel.Property] = propertyValue{Type: "select", Select: &selectValue{Name: sel.Option}}
	}
	return req
}

func buildUpdate(props Properties, r store.Record) pageRequest {
	end := r.EndTime.UTC().Format(time.RFC3339)
	properties := map[string]propertyValue{
		props.Summary: {RichText: text(r.Title)},
		props.Date: {Date: &dateValue{
			Start: r.StartTime.UTC().Format(time.RFC3339),
			End:   &end,
		}},
	}
	if r.Link != nil {
		link := *r.Link
		properties[props.Link] = propertyValue{URL: &link}
	} else {
		properties[props.Link] = propertyValue{clearURL: true}
	}
	return pageRequest{Properties: properties}
}

func (p page) toRecord(props Properties) store.Record {
	r := store.Record{
		RecordID:    p.ID,
		ExternalKey: plainText(p.Properties[props.Key].Title),
		Title:       plainText(p.Properties[props.Summary].RichText),
		Link:        p.Properties[props.Link].URL,
		Properties:  map[string]interface{}{},
	}
	if d := p.Properties[props.Date].Date; d != nil {
		r.StartTime = parseDate(d.Start)
		r.EndTime = r.StartTime
		if d.End != nil {
			r.EndTime = parseDate(*d.End)
		}
	}
	if people := p.Properties[props.People].People; len(people) > 0 {
		r.Properties[PropPersonID] = people[0].ID
	}
	return r
}

func plainText(parts []richText) string {
	b := strings.Builder{}
	for _, part := range parts {
		if part.PlainText != "" {
			b.WriteString(part.PlainText)
			continue
		}
		b.WriteString(part.Text.Content)
	}
	return b.String()
}

func parseDate(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return t
	}
	return time.Time{}
}
