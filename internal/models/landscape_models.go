package models

import (
	"encoding/json"
	"strconv"
)

// MonitorRequest is the body of the monitor endpoint.
type MonitorRequest struct {
	S2CellID string `json:"s2_cell_id" binding:"required"`
}

// FeatureCollection is the GeoJSON document embedded in the monitoring API response.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature represents one monitored field polygon with its prediction metadata.
type Feature struct {
	Type       string            `json:"type"`
	ID         FieldID           `json:"id"`
	Geometry   json.RawMessage   `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

type FeatureProperties struct {
	AreaSqM              float64                `json:"area_sq_m"`
	ALUType              string                 `json:"alu_type"`
	ClassConfidence      float64                `json:"class_confidence"`
	MonitoringPrediction []MonitoringPrediction `json:"monitoring_prediction"`
}

// MonitoringPrediction is a single time-bounded crop estimate for a field.
type MonitoringPrediction struct {
	StartTimestampSec int64          `json:"start_timestamp_sec"`
	EndTimestampSec   int64          `json:"end_timestamp_sec"`
	CropPrediction    CropPrediction `json:"crop_prediction"`
}

// Valid reports whether both season timestamps are present and positive.
func (p MonitoringPrediction) Valid() bool {
	return p.StartTimestampSec > 0 && p.EndTimestampSec > 0
}

// CropPrediction carries up to three ranked crop guesses with confidences in [0,1].
type CropPrediction struct {
	Crop1 string  `json:"crop_1"`
	Conf1 float64 `json:"conf_1"`
	Crop2 string  `json:"crop_2"`
	Conf2 float64 `json:"conf_2"`
	Crop3 string  `json:"crop_3"`
	Conf3 float64 `json:"conf_3"`
}

// FieldID accepts both string and numeric GeoJSON feature ids.
type FieldID string

func (id *FieldID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = FieldID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FieldID(n.String())
	return nil
}

func (id FieldID) String() string {
	return string(id)
}

// TimePeriod is one season window selected from the predictions.
type TimePeriod struct {
	PeriodKey string `json:"period_key"`
	Label     string `json:"label"`
	StartTs   int64  `json:"start_ts"`
	EndTs     int64  `json:"end_ts"`
}

// CellInfo is the result of a lat/lng to S2 cell lookup.
type CellInfo struct {
	IDInt   string  `json:"id_int"`
	IDToken string  `json:"id_token"`
	Level   int     `json:"level"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// SummaryStats mirrors the monitor page statistics block.
type SummaryStats struct {
	TotalFields  int     `json:"total_fields"`
	TotalAreaSqM float64 `json:"total_area_sq_m"`
	AvgAreaSqM   float64 `json:"avg_area_sq_m"`
}

// ComputeSummaryStats aggregates field counts and areas over a collection.
func ComputeSummaryStats(fc *FeatureCollection) SummaryStats {
	stats := SummaryStats{TotalFields: len(fc.Features)}
	for _, f := range fc.Features {
		stats.TotalAreaSqM += f.Properties.AreaSqM
	}
	if stats.TotalFields > 0 {
		stats.AvgAreaSqM = stats.TotalAreaSqM / float64(stats.TotalFields)
	}
	return stats
}

// FormatArea renders an area in the "12345.67" form used by popups and stats.
func FormatArea(area float64) string {
	return strconv.FormatFloat(area, 'f', 2, 64)
}
