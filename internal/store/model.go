package store

import "time"

// AreaState is the workflow stage an area has reached. Detection moves a
// freshly imported area to AreaAddressesDetected; the later states belong
// to manual review and canvass planning.
type AreaState int64

const (
	AreaImported AreaState = iota
	AreaAddressesDetected
	AreaAddressesCorrected
	AreaStreetsDetected
	AreaStreetsCorrected
	AreaAddressesAssigned
	AreaFlatsEstimated
	AreaTeamsAssigned
	AreaComplete
)

var areaStateNames = [...]string{
	"imported",
	"addresses_detected",
	"addresses_corrected",
	"streets_detected",
	"streets_corrected",
	"addresses_assigned",
	"flats_estimated",
	"teams_assigned",
	"complete",
}

// Valid reports whether s is a known state.
func (s AreaState) Valid() bool {
	return s >= AreaImported && s <= AreaComplete
}

func (s AreaState) String() string {
	if !s.Valid() {
		return "invalid"
	}
	return areaStateNames[s]
}

// Color is an area's display color.
type Color struct {
	R, G, B uint8
}

// Int64 packs the color as 0xRRGGBB.
func (c Color) Int64() int64 {
	return int64(c.R)<<16 | int64(c.G)<<8 | int64(c.B)
}

// ColorFromInt64 unpacks a 0xRRGGBB value.
func ColorFromInt64(v int64) Color {
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// NewArea describes an area to insert.
type NewArea struct {
	Name      string
	Color     Color
	ImagePath string
}

// Area is one scanned map image.
type Area struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     Color     `json:"color"`
	State     AreaState `json:"state"`
	ImagePath string    `json:"image_path"`
	CreatedAt time.Time `json:"created_at"`
}

// Address is a detected house number.
type Address struct {
	ID             int64   `json:"id"`
	AreaID         int64   `json:"area_id"`
	HouseNumber    string  `json:"house_number"`
	X              int     `json:"x"`
	Y              int     `json:"y"`
	Confidence     float64 `json:"confidence"`
	CircleRadius   int64   `json:"circle_radius"`
	Verified       bool    `json:"verified"`
	EstimatedFlats *int64  `json:"estimated_flats,omitempty"`
	StreetID       *int64  `json:"street_id,omitempty"`
	RunID          string  `json:"run_id"`
}

// Street is a named street of an area.
type Street struct {
	ID       int64  `json:"id"`
	AreaID   int64  `json:"area_id"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

// Team is a numbered canvassing team of an area.
type Team struct {
	ID     int64 `json:"id"`
	AreaID int64 `json:"area_id"`
	Number int   `json:"number"`
}
