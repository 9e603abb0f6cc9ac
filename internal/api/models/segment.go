package models

// SegmentSession is the observable state of an admin obstruction editor.
type SegmentSession struct {
	ID          string          `json:"id"`
	State       string          `json:"state"`
	Start       *Coordinates    `json:"startCoord,omitempty"`
	End         *Coordinates    `json:"endCoord,omitempty"`
	Message     string          `json:"message,omitempty"`
	DialogOpen  bool            `json:"dialogOpen"`
	DialogMode  string          `json:"dialogMode,omitempty"`
	DefaultType ObstructionType `json:"defaultType,omitempty"`
}

// SegmentClickRequest is a map click forwarded to the editor.
type SegmentClickRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SegmentAddressesRequest defines a segment by two street addresses.
type SegmentAddressesRequest struct {
	StartAddress string `json:"startAddress" validate:"required"`
	EndAddress   string `json:"endAddress" validate:"required"`
}

// SegmentCoordinatesRequest defines a segment by four raw coordinate strings,
// exactly as typed in the admin form.
type SegmentCoordinatesRequest struct {
	StartLat string `json:"startLat"`
	StartLng string `json:"startLng"`
	EndLat   string `json:"endLat"`
	EndLng   string `json:"endLng"`
}

// SegmentSubmitRequest carries the dialog form.
type SegmentSubmitRequest struct {
	Type        ObstructionType `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
}

// SegmentSubmitResponse is returned after the dialog was submitted.
type SegmentSubmitResponse struct {
	Obstruction Obstruction    `json:"obstruction"`
	Session     SegmentSession `json:"session"`
}
