package models

type Car struct {
	ID             int64   `json:"id"`
	Model          string  `json:"model"`
	ManufacturerID int64   `json:"manufacturer_id"`
	DriverIDs      []int64 `json:"driver_ids"`

	Manufacturer *Manufacturer `json:"manufacturer,omitempty"`
	Drivers      []*Driver     `json:"drivers,omitempty"`
}

func (c Car) String() string {
	return c.Model
}

// HasDriver reports whether driverID is assigned to the car.
func (c Car) HasDriver(driverID int64) bool {
	for _, id := range c.DriverIDs {
		if id == driverID {
			return true
		}
	}
	return false
}
