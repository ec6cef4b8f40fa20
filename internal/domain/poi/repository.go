package poi

import "context"

type Repository interface {
	GetByID(ctx context.Context, poiID string) (PointOfInterest, bool, error)
	ListByDistrict(ctx context.Context, districtID string) ([]PointOfInterest, error)
}
