package snapcatalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// DefaultPlacesURL is the Google Places (New) text search endpoint.
const DefaultPlacesURL = "https://places.googleapis.com/v1/places:searchText"

// placesFieldMask limits the response to the fields Candidate needs.
const placesFieldMask = "places.displayName,places.googleMapsUri"

// GooglePlaces resolves location names with the Places text search API.
type GooglePlaces struct {
	URL    string // default: DefaultPlacesURL
	APIKey string

	client *resty.Client
}

// NewGooglePlaces creates a Places client.
func NewGooglePlaces(apiKey string, opts HTTPOptions) *GooglePlaces {
	return &GooglePlaces{APIKey: apiKey, client: NewRESTClient(opts)}
}

type placesReq struct {
	TextQuery string `json:"textQuery"`
}

type placesResp struct {
	Places []struct {
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		GoogleMapsURI string `json:"googleMapsUri"`
	} `json:"places"`
}

// Search returns the candidates in the provider's order. An empty response
// body ("{}") means no candidates.
func (p *GooglePlaces) Search(ctx context.Context, query string) ([]Candidate, error) {
	if p.URL == "" {
		p.URL = DefaultPlacesURL
	}
	if p.client == nil {
		p.client = NewRESTClient(HTTPOptions{})
	}

	res, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Goog-Api-Key", p.APIKey).
		SetHeader("X-Goog-FieldMask", placesFieldMask).
		SetBody(placesReq{TextQuery: query}).
		Post(p.URL)
	if err != nil {
		return nil, fmt.Errorf("places request: %w", err)
	}
	if !res.IsSuccess() {
		return nil, UpstreamFromResponse("places", res)
	}

	var body placesResp
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return nil, &UpstreamError{Service: "places", Status: res.StatusCode(), Message: "decode response: " + err.Error()}
	}

	out := make([]Candidate, 0, len(body.Places))
	for _, pl := range body.Places {
		out = append(out, Candidate{DisplayName: pl.DisplayName.Text, MapLink: pl.GoogleMapsURI})
	}
	return out, nil
}
