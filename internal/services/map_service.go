package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/analytics-ceew/agri-google/internal/models"
)

// ErrNoFeatures means the API answered with an empty collection; the map is
// not built and the caller shows a warning instead.
var ErrNoFeatures = errors.New("no features found in the data")

const defaultZoom = 13

// MapView is everything the monitor page needs to draw the Leaflet map.
type MapView struct {
	CenterLat float64              `json:"center_lat"`
	CenterLng float64              `json:"center_lng"`
	Zoom      int                  `json:"zoom"`
	Bounds    *models.MapBounds    `json:"bounds,omitempty"`
	Features  []FeatureView        `json:"features"`
	Legend    []models.LegendEntry `json:"legend"`
}

// FeatureView is one polygon overlay: raw geometry for Leaflet plus the
// server-rendered style and popup.
type FeatureView struct {
	ID        string          `json:"id"`
	Geometry  json.RawMessage `json:"geometry"`
	FillColor string          `json:"fill_color"`
	PopupHTML string          `json:"popup_html"`
}

var popupTemplate = template.Must(template.New("popup").Parse(`<div style="font-family: Arial; font-size: 12px; min-width: 250px;">
  <h4 style="margin: 0 0 10px 0; color: #2E7D32;">Field Information</h4>
  <table style="width: 100%; border-collapse: collapse;">
    <tr><td style="padding: 4px; font-weight: bold;">Field ID:</td><td style="padding: 4px;">{{.FieldID}}</td></tr>
    <tr><td style="padding: 4px; font-weight: bold;">Area:</td><td style="padding: 4px;">{{.Area}} m&sup2;</td></tr>
    <tr style="background-color: #f0f0f0;"><td style="padding: 4px; font-weight: bold;">Season:</td><td style="padding: 4px;">{{.Season}}</td></tr>
    <tr><td colspan="2" style="padding: 8px 4px 4px 4px; font-weight: bold; color: #1976D2;">Primary Crop:</td></tr>
    <tr><td style="padding: 4px; padding-left: 20px;">Crop:</td><td style="padding: 4px;">{{.PrimaryCrop}}</td></tr>
    <tr><td style="padding: 4px; padding-left: 20px;">Confidence:</td><td style="padding: 4px;">{{.PrimaryConf}}</td></tr>
    <tr style="background-color: #f0f0f0;"><td colspan="2" style="padding: 8px 4px 4px 4px; font-weight: bold; color: #1976D2;">Secondary Crop:</td></tr>
    <tr style="background-color: #f0f0f0;"><td style="padding: 4px; padding-left: 20px;">Crop:</td><td style="padding: 4px;">{{.SecondaryCrop}}</td></tr>
    <tr style="background-color: #f0f0f0;"><td style="padding: 4px; padding-left: 20px;">Confidence:</td><td style="padding: 4px;">{{.SecondaryConf}}</td></tr>
  </table>
</div>`))

type popupData struct {
	FieldID       string
	Area          string
	Season        string
	PrimaryCrop   string
	PrimaryConf   string
	SecondaryCrop string
	SecondaryConf string
}

type MapService struct {
	cells ICellService
}

type IMapService interface {
	Build(collection *models.FeatureCollection, cellID string) (*MapView, error)
}

func NewMapService(cells ICellService) IMapService {
	return &MapService{cells: cells}
}

// Build produces the map view model for a parsed collection, centered on the
// queried cell. An unparsable cell id or an empty collection aborts the map.
func (m *MapService) Build(collection *models.FeatureCollection, cellID string) (*MapView, error) {
	if collection == nil || len(collection.Features) == 0 {
		return nil, ErrNoFeatures
	}

	centerLat, centerLng, err := m.cells.CenterOf(cellID)
	if err != nil {
		return nil, err
	}

	view := &MapView{
		CenterLat: centerLat,
		CenterLng: centerLng,
		Zoom:      defaultZoom,
		Features:  make([]FeatureView, 0, len(collection.Features)),
		Legend:    models.Legend(),
	}

	if bounds, ok := collection.Bounds(); ok {
		view.Bounds = &bounds
	}

	for i := range collection.Features {
		feature := &collection.Features[i]
		view.Features = append(view.Features, FeatureView{
			ID:        feature.ID.String(),
			Geometry:  feature.Geometry,
			FillColor: featureColor(feature),
			PopupHTML: renderPopup(feature),
		})
	}

	return view, nil
}

// featureColor picks the fill for a polygon from the feature's own latest
// prediction. This is per-feature, independent of the globally selected
// period shown in the banner.
func featureColor(feature *models.Feature) string {
	latest := latestPrediction(feature.Properties.MonitoringPrediction)
	if latest == nil {
		return models.CropColors[models.NoPredictionCrop]
	}
	crop := latest.CropPrediction.Crop1
	if crop == "" {
		return models.CropColors[models.NoPredictionCrop]
	}
	return models.CropColor(crop)
}

// latestPrediction returns the prediction with the maximum start timestamp,
// or nil when the feature has none at all.
func latestPrediction(predictions []models.MonitoringPrediction) *models.MonitoringPrediction {
	var latest *models.MonitoringPrediction
	for i := range predictions {
		if latest == nil || predictions[i].StartTimestampSec > latest.StartTimestampSec {
			latest = &predictions[i]
		}
	}
	return latest
}

func renderPopup(feature *models.Feature) string {
	latest := latestPrediction(feature.Properties.MonitoringPrediction)
	if latest == nil {
		return "No data available"
	}

	crop := latest.CropPrediction
	data := popupData{
		FieldID: orNA(feature.ID.String()),
		Area:    models.FormatArea(feature.Properties.AreaSqM),
		Season: fmt.Sprintf("%s - %s",
			TimestampToMonthYear(latest.StartTimestampSec),
			TimestampToMonthYear(latest.EndTimestampSec)),
		PrimaryCrop:   orNA(crop.Crop1),
		PrimaryConf:   FormatPercent(crop.Conf1),
		SecondaryCrop: orNA(crop.Crop2),
		SecondaryConf: FormatPercent(crop.Conf2),
	}

	var buf bytes.Buffer
	if err := popupTemplate.Execute(&buf, data); err != nil {
		return "No data available"
	}
	return buf.String()
}

// FormatPercent renders a 0-1 confidence fraction as "85.00%".
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
