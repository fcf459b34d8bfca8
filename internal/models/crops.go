package models

import "strings"

const (
	NoPredictionCrop = "NO_PREDICTION"
	FallbackColor    = "#666666"
)

// cropOrder fixes the legend ordering; CropColors alone would iterate randomly.
var cropOrder = []string{
	"NO_PREDICTION",
	"UNKNOWN_CROP",
	"BAJRA",
	"CHILLI",
	"CORN",
	"COTTON",
	"GRAM",
	"GROUNDNUT",
	"MUSTARD",
	"RICE",
	"SORGHUM",
	"SOYBEANS",
	"SUGARCANE",
	"WHEAT",
}

// CropColors maps normalized crop names to map fill colors.
var CropColors = map[string]string{
	"NO_PREDICTION": "#CCCCCC",
	"UNKNOWN_CROP":  "#999999",
	"BAJRA":         "#8B4513",
	"CHILLI":        "#FF0000",
	"CORN":          "#FFD700",
	"COTTON":        "#FFFFFF",
	"GRAM":          "#DEB887",
	"GROUNDNUT":     "#CD853F",
	"MUSTARD":       "#FFFF00",
	"RICE":          "#90EE90",
	"SORGHUM":       "#A0522D",
	"SOYBEANS":      "#228B22",
	"SUGARCANE":     "#00CED1",
	"WHEAT":         "#F4A460",
}

// NormalizeCropName uppercases a crop name and collapses spaces to underscores
// so "Ground nut" and "GROUND_NUT" hit the same table entry.
func NormalizeCropName(name string) string {
	return strings.ReplaceAll(strings.ToUpper(name), " ", "_")
}

// CropColor returns the fill color for a crop name, falling back to a neutral
// gray for crops the table does not know.
func CropColor(name string) string {
	if color, ok := CropColors[NormalizeCropName(name)]; ok {
		return color
	}
	return FallbackColor
}

// LegendEntry is one crop/color pair shown in the map legend.
type LegendEntry struct {
	Crop  string `json:"crop"`
	Color string `json:"color"`
}

// Legend returns every known crop with its color, display-cased the way the
// monitor page shows them ("NO_PREDICTION" -> "No Prediction").
func Legend() []LegendEntry {
	entries := make([]LegendEntry, 0, len(cropOrder))
	for _, crop := range cropOrder {
		entries = append(entries, LegendEntry{
			Crop:  titleCase(strings.ReplaceAll(crop, "_", " ")),
			Color: CropColors[crop],
		})
	}
	return entries
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
