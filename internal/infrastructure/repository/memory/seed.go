package memory

import (
	"github.com/riskibarqy/turf-war/internal/domain/crew"
	"github.com/riskibarqy/turf-war/internal/domain/poi"
)

const (
	DistrictIDHarbor   = "district-harbor"
	DistrictIDOldTown  = "district-old-town"
	FactionIDRedHand   = "crew-red-hand"
	FactionIDBlueLotus = "crew-blue-lotus"
)

func SeedPOIs() []poi.PointOfInterest {
	return []poi.PointOfInterest{
		{ID: "poi-harbor-docks", Name: "Old Docks", Type: poi.TypeDocks, StrategicValue: 3, CaptureTimeMinutes: 10, DistrictID: DistrictIDHarbor},
		{ID: "poi-harbor-warehouse", Name: "Warehouse 9", Type: poi.TypeWarehouse, StrategicValue: 2, CaptureTimeMinutes: 8, DistrictID: DistrictIDHarbor},
		{ID: "poi-harbor-corner", Name: "Pier Street Corner", Type: poi.TypeCorner, StrategicValue: 1, CaptureTimeMinutes: 5, DistrictID: DistrictIDHarbor},
		{ID: "poi-oldtown-club", Name: "Velvet Room", Type: poi.TypeNightclub, StrategicValue: 2, CaptureTimeMinutes: 12, DistrictID: DistrictIDOldTown},
		{ID: "poi-oldtown-safehouse", Name: "Clocktower Safehouse", Type: poi.TypeSafehouse, StrategicValue: 4, CaptureTimeMinutes: 15, DistrictID: DistrictIDOldTown},
	}
}

func SeedMemberships() []crew.Membership {
	return []crew.Membership{
		{PlayerID: "player-red-boss", FactionID: FactionIDRedHand, Role: crew.RoleLeader},
		{PlayerID: "player-red-muscle", FactionID: FactionIDRedHand, Role: crew.RoleEnforcer},
		{PlayerID: "player-red-ghost", FactionID: FactionIDRedHand, Role: crew.RoleInfiltrator},
		{PlayerID: "player-blue-boss", FactionID: FactionIDBlueLotus, Role: crew.RoleLeader},
		{PlayerID: "player-blue-eyes", FactionID: FactionIDBlueLotus, Role: crew.RoleLookout},
		{PlayerID: "player-blue-runner", FactionID: FactionIDBlueLotus, Role: crew.RoleMember},
	}
}
