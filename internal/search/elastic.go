package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/olivere/elastic/v7"

	"github.com/jask/foodswipe/internal/venue"
)

const DefaultElasticIndex = "venues"

const venueMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "id":            {"type": "keyword"},
      "name":          {"type": "text"},
      "category":      {"type": "keyword"},
      "categories":    {"type": "keyword"},
      "image_url":     {"type": "keyword", "index": false},
      "location":      {"type": "geo_point"},
      "rating":        {"type": "float"},
      "is_closed":     {"type": "boolean"},
      "phone":         {"type": "keyword"},
      "display_phone": {"type": "keyword", "index": false}
    }
  }
}`

// ElasticDoc is the stored shape of a venue in the search index.
type ElasticDoc struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Category     *string          `json:"category,omitempty"`
	Categories   []string         `json:"categories,omitempty"`
	ImageURL     *string          `json:"image_url,omitempty"`
	Location     elastic.GeoPoint `json:"location"`
	Rating       *float64         `json:"rating,omitempty"`
	IsClosed     *bool            `json:"is_closed,omitempty"`
	Phone        *string          `json:"phone,omitempty"`
	DisplayPhone *string          `json:"display_phone,omitempty"`
}

func (d ElasticDoc) source() venue.Source {
	return venue.Source{
		ID:           d.ID,
		Name:         d.Name,
		Category:     d.Category,
		ImageURL:     d.ImageURL,
		Coordinates:  venue.Coordinate{Latitude: d.Location.Lat, Longitude: d.Location.Lon},
		Rating:       d.Rating,
		IsClosed:     d.IsClosed,
		Phone:        d.Phone,
		DisplayPhone: d.DisplayPhone,
	}
}

// NewElasticClient connects to a single node without sniffing.
func NewElasticClient(url string) (*elastic.Client, error) {
	return elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
}

// ElasticGateway serves nearby searches from a local geo index.
type ElasticGateway struct {
	Client *elastic.Client
	Index  string
}

func NewElasticGateway(client *elastic.Client, index string) *ElasticGateway {
	if index == "" {
		index = DefaultElasticIndex
	}
	return &ElasticGateway{Client: client, Index: index}
}

func (g *ElasticGateway) Search(ctx context.Context, q Query) ([]venue.Source, error) {
	const op = "elastic search"
	if err := q.Validate(); err != nil {
		return nil, newError(op, KindInvalidQuery, err)
	}

	bq := elastic.NewBoolQuery().Filter(
		elastic.NewGeoDistanceQuery("location").
			Point(q.Center.Latitude, q.Center.Longitude).
			Distance(fmt.Sprintf("%dm", q.RadiusMeters)),
	)
	if tokens := categoryTerms(q.CategoryToken); len(tokens) > 0 {
		bq = bq.Filter(elastic.NewTermsQuery("categories", tokens...))
	}
	if q.OpenOnly {
		bq = bq.MustNot(elastic.NewTermQuery("is_closed", true))
	}

	byDistance := elastic.NewGeoDistanceSort("location").
		Point(q.Center.Latitude, q.Center.Longitude).
		Asc().
		Unit("m").
		DistanceType("arc")

	svc := g.Client.Search().
		Index(g.Index).
		Query(bq).
		From(q.Offset).
		Size(q.Limit)
	if q.SortToken == "distance" {
		svc = svc.SortBy(byDistance)
	} else {
		svc = svc.SortBy(elastic.NewFieldSort("rating").Desc().Missing("_last"), byDistance)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return nil, classifyElastic(op, err)
	}
	if res.Hits == nil {
		return nil, nil
	}
	out := make([]venue.Source, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc ElasticDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, newError(op, KindDecode, fmt.Errorf("hit %s: %w", hit.Id, err))
		}
		if doc.ID == "" {
			doc.ID = hit.Id
		}
		out = append(out, doc.source())
	}
	return out, nil
}

// categoryTerms expands a category token into index terms. The generic
// restaurants token matches everything.
func categoryTerms(token string) []interface{} {
	var out []interface{}
	for _, t := range strings.Split(token, ",") {
		t = strings.TrimSpace(t)
		if t == "" || t == "restaurants" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func classifyElastic(op string, err error) error {
	var ee *elastic.Error
	if errors.As(err, &ee) {
		e := newError(op, KindRejected, err)
		e.Status = ee.Status
		return e
	}
	return newError(op, KindTransport, err)
}

// ElasticIndexer creates the venue index and bulk loads documents into it.
type ElasticIndexer struct {
	Client *elastic.Client
	Index  string
}

func NewElasticIndexer(client *elastic.Client, index string) *ElasticIndexer {
	if index == "" {
		index = DefaultElasticIndex
	}
	return &ElasticIndexer{Client: client, Index: index}
}

// EnsureIndex creates the index with the geo mapping unless it exists.
func (ix *ElasticIndexer) EnsureIndex(ctx context.Context) (created bool, err error) {
	exists, err := ix.Client.IndexExists(ix.Index).Do(ctx)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", ix.Index, err)
	}
	if exists {
		return false, nil
	}
	res, err := ix.Client.CreateIndex(ix.Index).BodyString(venueMapping).Do(ctx)
	if err != nil {
		return false, fmt.Errorf("create index %s: %w", ix.Index, err)
	}
	if !res.Acknowledged {
		return true, fmt.Errorf("create index %s: not acknowledged", ix.Index)
	}
	return true, nil
}

// Load bulk indexes docs keyed by venue id and returns the number that succeeded.
func (ix *ElasticIndexer) Load(ctx context.Context, docs []ElasticDoc) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	bulk := ix.Client.Bulk().Index(ix.Index).Refresh("true")
	for _, d := range docs {
		bulk = bulk.Add(elastic.NewBulkIndexRequest().Id(d.ID).Doc(d))
	}
	res, err := bulk.Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}
	failed := res.Failed()
	if len(failed) > 0 {
		first := failed[0]
		reason := "unknown"
		if first.Error != nil {
			reason = first.Error.Reason
		}
		return len(docs) - len(failed), fmt.Errorf("bulk index: %d of %d failed, first %s: %s", len(failed), len(docs), first.Id, reason)
	}
	return len(docs), nil
}
