package poi

import "fmt"

type Type string

const (
	TypeCorner    Type = "corner"
	TypeWarehouse Type = "warehouse"
	TypeDocks     Type = "docks"
	TypeNightclub Type = "nightclub"
	TypeSafehouse Type = "safehouse"
)

// PointOfInterest is a capturable location. It is static reference data.
type PointOfInterest struct {
	ID                 string
	Name               string
	Type               Type
	StrategicValue     int
	CaptureTimeMinutes int
	DistrictID         string
}

func (p PointOfInterest) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("poi id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("poi name is required")
	}
	if p.DistrictID == "" {
		return fmt.Errorf("poi district id is required")
	}
	if p.StrategicValue < 1 {
		return fmt.Errorf("poi strategic value must be >= 1")
	}
	if p.CaptureTimeMinutes < 1 {
		return fmt.Errorf("poi capture time must be >= 1 minute")
	}

	return nil
}
