package domain

type SpotType string

const (
	SpotTypeStandard   SpotType = "STANDARD"
	SpotTypeCompact    SpotType = "COMPACT"
	SpotTypeHandicap   SpotType = "HANDICAP"
	SpotTypeElectric   SpotType = "ELECTRIC"
	SpotTypeMotorcycle SpotType = "MOTORCYCLE"
)

func SpotTypes() []SpotType {
	return []SpotType{
		SpotTypeStandard,
		SpotTypeCompact,
		SpotTypeHandicap,
		SpotTypeElectric,
		SpotTypeMotorcycle,
	}
}

func (t SpotType) Valid() bool {
	for _, known := range SpotTypes() {
		if t == known {
			return true
		}
	}
	return false
}

type Spot struct {
	ID           string
	SpotNumber   string
	Type         SpotType
	ParkingLotID string
}

// SpotFilter narrows a spot listing. Zero values match everything.
type SpotFilter struct {
	ParkingLotID string
	Type         SpotType
}

func (f SpotFilter) Matches(s Spot) bool {
	if f.ParkingLotID != "" && s.ParkingLotID != f.ParkingLotID {
		return false
	}
	if f.Type != "" && s.Type != f.Type {
		return false
	}
	return true
}
