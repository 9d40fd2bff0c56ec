// Package testdata produces sample venues for local indexes and demos.
package testdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/olivere/elastic/v7"

	"github.com/jask/foodswipe/internal/search"
	"github.com/jask/foodswipe/internal/settings"
	"github.com/jask/foodswipe/internal/venue"
)

var sampleNames = []string{"Dumpling House", "Noodle Bar", "Night Market Stall", "Corner Bistro", "Harbour Grill", "Tea Room", "Izakaya Hana", "Green Bowl", "Smoky Pit", "Morning Table"}

// Venues creates n sample venues scattered within spreadMeters of center.
// The same seed always yields the same venues.
func Venues(center venue.Coordinate, n int, spreadMeters float64, seed int64) []search.ElasticDoc {
	rng := rand.New(rand.NewSource(seed))
	cats := settings.Categories[1:] // skip "all"

	docs := make([]search.ElasticDoc, 0, n)
	for i := 0; i < n; i++ {
		cat := cats[rng.Intn(len(cats))]
		name := fmt.Sprintf("%s %d", sampleNames[rng.Intn(len(sampleNames))], i+1)
		label := cat.Label()

		// uniform over the disc
		dist := spreadMeters * math.Sqrt(rng.Float64())
		bearing := rng.Float64() * 2 * math.Pi
		lat := center.Latitude + (dist*math.Cos(bearing))/111320
		lon := center.Longitude + (dist*math.Sin(bearing))/(111320*math.Cos(center.Latitude*math.Pi/180))

		doc := search.ElasticDoc{
			ID:         uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("sample-%d-%d", seed, i))).String(),
			Name:       name,
			Category:   &label,
			Categories: strings.Split(cat.Token(), ","),
			Location:   elastic.GeoPoint{Lat: lat, Lon: lon},
		}
		if rng.Intn(5) > 0 {
			r := math.Round((2.5+rng.Float64()*2.5)*2) / 2
			doc.Rating = &r
		}
		if rng.Intn(3) > 0 {
			img := fmt.Sprintf("https://images.example.com/venues/%s.jpg", doc.ID)
			doc.ImageURL = &img
		}
		if rng.Intn(6) == 0 {
			closed := true
			doc.IsClosed = &closed
		}
		docs = append(docs, doc)
	}
	return docs
}

// WriteTSV writes docs in the layout search.ReadVenueTSV expects.
func WriteTSV(w io.Writer, docs []search.ElasticDoc) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write([]string{"id", "name", "category", "categories", "latitude", "longitude", "rating", "image_url", "phone", "display_phone", "is_closed"}); err != nil {
		return err
	}
	for _, d := range docs {
		rec := []string{
			d.ID,
			d.Name,
			deref(d.Category),
			strings.Join(d.Categories, ","),
			strconv.FormatFloat(d.Location.Lat, 'f', 6, 64),
			strconv.FormatFloat(d.Location.Lon, 'f', 6, 64),
			"",
			deref(d.ImageURL),
			deref(d.Phone),
			deref(d.DisplayPhone),
			"",
		}
		if d.Rating != nil {
			rec[6] = strconv.FormatFloat(*d.Rating, 'f', 1, 64)
		}
		if d.IsClosed != nil {
			rec[10] = strconv.FormatBool(*d.IsClosed)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
