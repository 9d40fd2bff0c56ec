package search

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olivere/elastic/v7"
)

// ReadVenueTSV parses a tab separated venue dump with a header row:
// id, name, category, categories, latitude, longitude, rating, image_url, phone, display_phone, is_closed.
// Optional columns may be blank.
func ReadVenueTSV(r io.Reader) ([]ElasticDoc, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var docs []ElasticDoc
	line := 0
	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 {
			continue
		}
		if len(rec) < 6 {
			return nil, fmt.Errorf("line %d: expected at least 6 columns, got %d", line, len(rec))
		}
		col := func(i int) string {
			if i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		lat, err := strconv.ParseFloat(col(4), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(col(5), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d longitude: %w", line, err)
		}
		doc := ElasticDoc{
			ID:           col(0),
			Name:         col(1),
			Category:     optString(col(2)),
			Location:     elastic.GeoPoint{Lat: lat, Lon: lon},
			ImageURL:     optString(col(7)),
			Phone:        optString(col(8)),
			DisplayPhone: optString(col(9)),
		}
		if doc.ID == "" {
			return nil, fmt.Errorf("line %d: empty id", line)
		}
		for _, c := range strings.Split(col(3), ",") {
			if c = strings.TrimSpace(c); c != "" {
				doc.Categories = append(doc.Categories, c)
			}
		}
		if s := col(6); s != "" {
			rating, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d rating: %w", line, err)
			}
			doc.Rating = &rating
		}
		if s := col(10); s != "" {
			closed, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("line %d is_closed: %w", line, err)
			}
			doc.IsClosed = &closed
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
