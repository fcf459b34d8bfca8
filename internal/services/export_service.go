package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/analytics-ceew/agri-google/internal/models"
)

var csvHeader = []string{
	"Field_ID", "Area_sqm", "ALU_Type", "Class_Confidence",
	"Season_Start", "Season_End",
	"Primary_Crop", "Primary_Confidence",
	"Secondary_Crop", "Secondary_Confidence",
	"Tertiary_Crop", "Tertiary_Confidence",
}

type ExportService struct{}

type IExportService interface {
	LandscapeCSV(collection *models.FeatureCollection) ([]byte, error)
	PrettyJSON(raw json.RawMessage) ([]byte, error)
}

func NewExportService() IExportService {
	return &ExportService{}
}

// LandscapeCSV flattens every (feature, prediction) pair into one row.
// Features without predictions contribute no rows; missing fields stay
// empty or zero.
func (e *ExportService) LandscapeCSV(collection *models.FeatureCollection) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, feature := range collection.Features {
		for _, pred := range feature.Properties.MonitoringPrediction {
			crop := pred.CropPrediction
			row := []string{
				feature.ID.String(),
				formatFloat(feature.Properties.AreaSqM),
				feature.Properties.ALUType,
				formatFloat(feature.Properties.ClassConfidence),
				TimestampToMonthYear(pred.StartTimestampSec),
				TimestampToMonthYear(pred.EndTimestampSec),
				crop.Crop1,
				formatFloat(crop.Conf1),
				crop.Crop2,
				formatFloat(crop.Conf2),
				crop.Crop3,
				formatFloat(crop.Conf3),
			}
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// PrettyJSON re-indents the raw API response for the viewer and the JSON
// download. The content is the unmodified response, only reformatted.
func (e *ExportService) PrettyJSON(raw json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to format raw response: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
