// Package notion stores catalog records as pages of a Notion database.
package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	snapcatalog "github.com/anatolykoptev/go-snapcatalog"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	APIVersion     = "2022-06-28"
	pageSize       = 100
)

// Store writes to the database DatabaseID. The database must have the
// properties Name (title), Type, Note (rich text), Link (url) and Date Added (date).
type Store struct {
	BaseURL    string // default: DefaultBaseURL
	DatabaseID string

	client *resty.Client // queries, retried on transient failures
	writer *resty.Client // page creation, retried only on 429
}

// New creates a Notion store authenticated with an integration token.
func New(token, databaseID string, opts snapcatalog.HTTPOptions) *Store {
	return &Store{
		DatabaseID: databaseID,
		client:     authorize(snapcatalog.NewRESTClient(opts), token),
		writer:     authorize(snapcatalog.NewWriteClient(opts), token),
	}
}

func authorize(c *resty.Client, token string) *resty.Client {
	return c.SetAuthToken(token).
		SetHeader("Notion-Version", APIVersion).
		SetHeader("Content-Type", "application/json")
}

func (s *Store) url(path string) string {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + path
}

type text struct {
	Content string `json:"content"`
}

type richText struct {
	Text      text   `json:"text"`
	PlainText string `json:"plain_text,omitempty"`
}

type pageProperties struct {
	Name struct {
		Title []richText `json:"title"`
	} `json:"Name"`
	Type struct {
		RichText []richText `json:"rich_text"`
	} `json:"Type"`
	Note struct {
		RichText []richText `json:"rich_text"`
	} `json:"Note"`
	Link struct {
		URL *string `json:"url"`
	} `json:"Link"`
	DateAdded struct {
		Date struct {
			Start string `json:"start"`
		} `json:"date"`
	} `json:"Date Added"`
}

type createPageReq struct {
	Parent struct {
		DatabaseID string `json:"database_id"`
	} `json:"parent"`
	Properties pageProperties `json:"properties"`
}

// properties maps a record onto the database columns. An empty link is sent
// as null, which Notion accepts for url properties.
func properties(rec snapcatalog.CatalogRecord) pageProperties {
	var p pageProperties
	p.Name.Title = []richText{{Text: text{Content: rec.Name}}}
	p.Type.RichText = []richText{{Text: text{Content: rec.Type.String()}}}
	p.Note.RichText = []richText{{Text: text{Content: rec.Note}}}
	if rec.Link != "" {
		link := rec.Link
		p.Link.URL = &link
	}
	p.DateAdded.Date.Start = rec.DateAdded.Format(snapcatalog.DateLayout)
	return p
}

// Insert creates one page. Non-2xx responses are returned as *snapcatalog.UpstreamError.
func (s *Store) Insert(ctx context.Context, rec snapcatalog.CatalogRecord) error {
	var body createPageReq
	body.Parent.DatabaseID = s.DatabaseID
	body.Properties = properties(rec)

	res, err := s.writer.R().
		SetContext(ctx).
		SetBody(body).
		Post(s.url("/pages"))
	if err != nil {
		return fmt.Errorf("notion create page: %w", err)
	}
	if !res.IsSuccess() {
		return snapcatalog.UpstreamFromResponse("catalog", res)
	}
	return nil
}

type queryReq struct {
	PageSize    int    `json:"page_size"`
	StartCursor string `json:"start_cursor,omitempty"`
}

type queryResp struct {
	Results []struct {
		Properties struct {
			Name struct {
				Title []richText `json:"title"`
			} `json:"Name"`
		} `json:"properties"`
	} `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// ListNames pages through the database and returns every Name title.
func (s *Store) ListNames(ctx context.Context) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	cursor := ""
	for {
		res, err := s.client.R().
			SetContext(ctx).
			SetBody(queryReq{PageSize: pageSize, StartCursor: cursor}).
			Post(s.url("/databases/" + s.DatabaseID + "/query"))
		if err != nil {
			return nil, fmt.Errorf("notion query database: %w", err)
		}
		if !res.IsSuccess() {
			return nil, snapcatalog.UpstreamFromResponse("catalog", res)
		}

		var page queryResp
		if err := json.Unmarshal(res.Body(), &page); err != nil {
			return nil, &snapcatalog.UpstreamError{Service: "catalog", Status: res.StatusCode(), Message: "decode query: " + err.Error()}
		}
		for _, r := range page.Results {
			if name := titleText(r.Properties.Name.Title); name != "" {
				names[name] = struct{}{}
			}
		}

		if !page.HasMore || page.NextCursor == "" {
			return names, nil
		}
		cursor = page.NextCursor
	}
}

// titleText joins the plain text of a title property. Notion splits long or
// formatted titles into several rich text fragments.
func titleText(parts []richText) string {
	var b strings.Builder
	for _, p := range parts {
		if p.PlainText != "" {
			b.WriteString(p.PlainText)
		} else {
			b.WriteString(p.Text.Content)
		}
	}
	return b.String()
}
