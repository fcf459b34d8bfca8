package services

import (
	"fmt"
	"strconv"

	"github.com/golang/geo/s2"

	"github.com/analytics-ceew/agri-google/internal/models"
)

// CellLevel is the S2 hierarchy depth used throughout: field-scale cells.
const CellLevel = 13

type CellService struct{}

type ICellService interface {
	FromLatLng(lat, lng float64) models.CellInfo
	CenterOf(cellID string) (float64, float64, error)
}

func NewCellService() ICellService {
	return &CellService{}
}

// FromLatLng returns the level-13 S2 cell containing the point, as both a
// decimal id string and a compact token.
func (c *CellService) FromLatLng(lat, lng float64) models.CellInfo {
	cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lng)).Parent(CellLevel)
	return models.CellInfo{
		IDInt:   strconv.FormatUint(uint64(cell), 10),
		IDToken: cell.ToToken(),
		Level:   CellLevel,
		Lat:     lat,
		Lng:     lng,
	}
}

// CenterOf converts a decimal S2 cell id string to its center point in
// degrees. Non-numeric input and invalid cell ids are reported as errors.
func (c *CellService) CenterOf(cellID string) (float64, float64, error) {
	id, err := strconv.ParseUint(cellID, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid S2 cell ID format, must be a numeric ID: %q", cellID)
	}
	cell := s2.CellID(id)
	if !cell.IsValid() {
		return 0, 0, fmt.Errorf("S2 cell ID %q does not reference a valid cell", cellID)
	}
	center := cell.LatLng()
	return center.Lat.Degrees(), center.Lng.Degrees(), nil
}
