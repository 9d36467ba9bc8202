package geojson_test

import (
	"fmt"
	"log"

	"github.com/robert-malhotra/aurorax-client/pkg/geojson"
)

func ExampleNewPoint() {
	// Footprint of a satellite at one epoch
	g, err := geojson.NewPoint(-147.2, 65.1)
	if err != nil {
		log.Fatal(err)
	}

	wkt, err := geojson.ToWKT(g)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(wkt)
	// Output: POINT(-147.2 65.1)
}

func ExampleNewFeatureCollection() {
	p1, _ := geojson.NewPoint(-147.2, 65.1)
	p2, _ := geojson.NewPoint(-146.8, 65.6)

	fc, err := geojson.NewFeatureCollection(
		geojson.NewFeature(p1, map[string]any{"epoch": "2020-01-01T00:00:00"}),
		geojson.NewFeature(p2, map[string]any{"epoch": "2020-01-01T00:01:00"}),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Features: %d\n", len(fc.Features))
	fmt.Printf("BBox: %v\n", fc.BBox)
	// Output:
	// Features: 2
	// BBox: [-147.2 65.1 -146.8 65.6]
}
