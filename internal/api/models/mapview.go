package models

// MapConfig is what a map client needs to initialise the base map.
type MapConfig struct {
	APIKey string      `json:"apiKey"`
	MapID  string      `json:"mapId"`
	Center Coordinates `json:"center"`
	Zoom   int         `json:"zoom"`
	Region string      `json:"region"`
	Bounds MapBounds   `json:"bounds"`
}

// MapBounds is the region bias rectangle.
type MapBounds struct {
	SouthWest Coordinates `json:"southWest"`
	NorthEast Coordinates `json:"northEast"`
}
