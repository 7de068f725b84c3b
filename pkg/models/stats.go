package models

// Stats are the fleet totals shown on the home page.
type Stats struct {
	Drivers       int `json:"drivers"`
	Cars          int `json:"cars"`
	Manufacturers int `json:"manufacturers"`
}
