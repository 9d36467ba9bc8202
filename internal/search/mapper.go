package search

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
	"github.com/robert-malhotra/aurorax-client/internal/sources"
)

// mapRows decodes result rows into typed records, keeping server order.
func mapRows[R any](rows []json.RawMessage, decode func(json.RawMessage) (R, error)) ([]R, error) {
	out := make([]R, 0, len(rows))
	for i, row := range rows {
		r, err := decode(row)
		if err != nil {
			return nil, fmt.Errorf("%w: result %d: %v", aurorax.ErrDataRetrieval, i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// RawRows decodes result rows without mapping them to records.
func RawRows(rows []json.RawMessage) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(rows))
	for i, row := range rows {
		var m map[string]any
		if err := json.Unmarshal(row, &m); err != nil {
			return nil, fmt.Errorf("%w: result %d: %v", aurorax.ErrDataRetrieval, i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

type conjunctionRow struct {
	ConjunctionType string               `json:"conjunction_type"`
	Start           string               `json:"start"`
	End             string               `json:"end"`
	DataSources     []sources.DataSource `json:"data_sources"`
	MinDistance     float64              `json:"min_distance"`
	MaxDistance     float64              `json:"max_distance"`
	Events          []map[string]any     `json:"events"`
	ClosestEpoch    string               `json:"closest_epoch"`
	FarthestEpoch   string               `json:"farthest_epoch"`
}

func decodeConjunction(data json.RawMessage) (Conjunction, error) {
	var row conjunctionRow
	if err := json.Unmarshal(data, &row); err != nil {
		return Conjunction{}, err
	}

	c := Conjunction{
		ConjunctionType: ConjunctionType(row.ConjunctionType),
		DataSources:     row.DataSources,
		MinDistance:     row.MinDistance,
		MaxDistance:     row.MaxDistance,
		Events:          make([]ConjunctionEvent, 0, len(row.Events)),
	}

	var err error
	if c.Start, err = parseRowTime("start", row.Start); err != nil {
		return Conjunction{}, err
	}
	if c.End, err = parseRowTime("end", row.End); err != nil {
		return Conjunction{}, err
	}
	if c.ClosestEpoch, err = parseRowTime("closest_epoch", row.ClosestEpoch); err != nil {
		return Conjunction{}, err
	}
	if c.FarthestEpoch, err = parseRowTime("farthest_epoch", row.FarthestEpoch); err != nil {
		return Conjunction{}, err
	}

	for _, raw := range row.Events {
		ev, err := decodeConjunctionEvent(raw)
		if err != nil {
			return Conjunction{}, err
		}
		c.Events = append(c.Events, ev)
	}

	return c, nil
}

func decodeConjunctionEvent(raw map[string]any) (ConjunctionEvent, error) {
	var ev ConjunctionEvent
	attrs := make(map[string]any, len(raw))
	for k, v := range raw {
		switch k {
		case "start", "end":
			s, _ := v.(string)
			t, err := parseRowTime("event "+k, s)
			if err != nil {
				return ConjunctionEvent{}, err
			}
			if k == "start" {
				ev.Start = t
			} else {
				ev.End = t
			}
		default:
			attrs[k] = v
		}
	}
	if len(attrs) > 0 {
		ev.Attributes = attrs
	}
	return ev, nil
}

type ephemerisRow struct {
	DataSource  sources.DataSource `json:"data_source"`
	Epoch       string             `json:"epoch"`
	LocationGeo *Location          `json:"location_geo"`
	LocationGSM *Location          `json:"location_gsm"`
	NBTrace     *Location          `json:"nbtrace"`
	SBTrace     *Location          `json:"sbtrace"`
	Metadata    map[string]any     `json:"metadata"`
}

func decodeEphemeris(data json.RawMessage) (EphemerisRecord, error) {
	var row ephemerisRow
	if err := json.Unmarshal(data, &row); err != nil {
		return EphemerisRecord{}, err
	}

	epoch, err := parseRowTime("epoch", row.Epoch)
	if err != nil {
		return EphemerisRecord{}, err
	}

	return EphemerisRecord{
		DataSource:  row.DataSource,
		Epoch:       epoch,
		LocationGeo: derefLocation(row.LocationGeo),
		LocationGSM: derefLocation(row.LocationGSM),
		NBTrace:     derefLocation(row.NBTrace),
		SBTrace:     derefLocation(row.SBTrace),
		Metadata:    row.Metadata,
	}, nil
}

type dataProductRow struct {
	DataSource      sources.DataSource `json:"data_source"`
	DataProductType string             `json:"data_product_type"`
	Start           string             `json:"start"`
	End             string             `json:"end"`
	URL             string             `json:"url"`
	Metadata        map[string]any     `json:"metadata"`
}

func decodeDataProduct(data json.RawMessage) (DataProductRecord, error) {
	var row dataProductRow
	if err := json.Unmarshal(data, &row); err != nil {
		return DataProductRecord{}, err
	}

	start, err := parseRowTime("start", row.Start)
	if err != nil {
		return DataProductRecord{}, err
	}
	end, err := parseRowTime("end", row.End)
	if err != nil {
		return DataProductRecord{}, err
	}

	return DataProductRecord{
		DataSource:      row.DataSource,
		DataProductType: DataProductType(row.DataProductType),
		Start:           start,
		End:             end,
		URL:             row.URL,
		Metadata:        row.Metadata,
	}, nil
}

// parseRowTime leaves missing timestamps as the zero time.
func parseRowTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}

func derefLocation(l *Location) Location {
	if l == nil {
		return Location{}
	}
	return *l
}
