package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jask/foodswipe/internal/venue"
)

const DefaultYelpURL = "https://api.yelp.com/v3/businesses/search"

// YelpGateway queries the Yelp Fusion business search endpoint.
type YelpGateway struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
	Locale  string
}

func NewYelpGateway(apiKey, baseURL, locale string, timeout time.Duration) *YelpGateway {
	if baseURL == "" {
		baseURL = DefaultYelpURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &YelpGateway{
		Client:  &http.Client{Timeout: timeout},
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(apiKey),
		Locale:  locale,
	}
}

type yelpResponse struct {
	Businesses []yelpBusiness `json:"businesses"`
	Total      int            `json:"total"`
}

type yelpCategory struct {
	Alias *string `json:"alias"`
	Title *string `json:"title"`
}

type yelpCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type yelpBusiness struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	ImageURL     *string          `json:"image_url"`
	IsClosed     *bool            `json:"is_closed"`
	Rating       *float64         `json:"rating"`
	Categories   []yelpCategory   `json:"categories"`
	Coordinates  *yelpCoordinates `json:"coordinates"`
	Phone        *string          `json:"phone"`
	DisplayPhone *string          `json:"display_phone"`
}

func (b yelpBusiness) source() venue.Source {
	src := venue.Source{
		ID:           b.ID,
		Name:         b.Name,
		ImageURL:     b.ImageURL,
		IsClosed:     b.IsClosed,
		Rating:       b.Rating,
		Phone:        b.Phone,
		DisplayPhone: b.DisplayPhone,
	}
	if len(b.Categories) > 0 {
		src.Category = b.Categories[0].Title
	}
	if b.Coordinates != nil {
		src.Coordinates = venue.Coordinate{Latitude: b.Coordinates.Latitude, Longitude: b.Coordinates.Longitude}
	}
	return src
}

func (g *YelpGateway) requestURL(q Query) (string, error) {
	u, err := url.Parse(g.BaseURL)
	if err != nil {
		return "", err
	}
	v := url.Values{}
	v.Set("latitude", strconv.FormatFloat(q.Center.Latitude, 'f', -1, 64))
	v.Set("longitude", strconv.FormatFloat(q.Center.Longitude, 'f', -1, 64))
	v.Set("radius", strconv.Itoa(q.RadiusMeters))
	v.Set("categories", q.CategoryToken)
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	v.Set("sort_by", q.SortToken)
	v.Set("open_now", strconv.FormatBool(q.OpenOnly))
	if g.Locale != "" {
		v.Set("locale", g.Locale)
	}
	u.RawQuery = v.Encode()
	return u.String(), nil
}

// Search fetches one page of businesses around q.Center.
func (g *YelpGateway) Search(ctx context.Context, q Query) ([]venue.Source, error) {
	const op = "yelp search"
	if err := q.Validate(); err != nil {
		return nil, newError(op, KindInvalidQuery, err)
	}
	endpoint, err := g.requestURL(q)
	if err != nil {
		return nil, newError(op, KindInvalidQuery, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newError(op, KindInvalidQuery, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, newError(op, KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e := &Error{Op: op, Kind: KindRejected, Status: resp.StatusCode}
		if msg := strings.TrimSpace(string(body)); msg != "" {
			e.Err = errors.New(msg)
		}
		return nil, e
	}

	var out yelpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, newError(op, KindDecode, err)
	}
	sources := make([]venue.Source, 0, len(out.Businesses))
	for _, b := range out.Businesses {
		sources = append(sources, b.source())
	}
	return sources, nil
}
