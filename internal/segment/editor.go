// Package segment implements the admin obstruction editor: the state machine
// an administrator walks through to pick a point or a two-point closure
// segment before filling in the obstruction details.
package segment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/geo"
	"github.com/tacnavial/tacnavial/internal/geocoding"
	"github.com/tacnavial/tacnavial/internal/validation"
)

// State is the map-picking state of the editor.
type State string

const (
	StateIdle         State = "idle"
	StatePickingStart State = "pickingStart"
	StatePickingEnd   State = "pickingEnd"
)

// DialogMode tells the details dialog which kind of obstruction it is creating.
type DialogMode string

const (
	DialogPoint   DialogMode = "point"
	DialogSegment DialogMode = "segment"
)

// Instruction messages shown while picking on the map.
const (
	MessagePickStart = "Haga clic en el mapa para marcar el inicio del segmento."
	MessagePickEnd   = "Haga clic en el mapa para marcar el final del segmento."
)

// Sentinel errors for editor operations.
var (
	ErrInvalidTransition = errors.New("operation not allowed in the current state")
	ErrDialogClosed      = errors.New("no location selected for a new obstruction")
	ErrClosureNeedsEnd   = errors.New("a closure segment needs an end point")
	ErrOutsideRegion     = errors.New("address resolves outside the service region")
	ErrSessionNotFound   = errors.New("segment session not found")
)

// GeocodeError reports which of the two segment addresses failed to resolve.
type GeocodeError struct {
	Which   string // "start" or "end"
	Address string
	Err     error
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("%s address %q: %v", e.Which, e.Address, e.Err)
}

func (e *GeocodeError) Unwrap() error {
	return e.Err
}

// ValidationError carries field errors for input rejected before any state change.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Creator persists the obstruction built by the editor.
type Creator interface {
	Add(ctx context.Context, input *models.ObstructionCreateRequest) (*models.Obstruction, error)
}

// Editor is one administrator's obstruction editor. It is safe for
// concurrent use.
type Editor struct {
	id       string
	geocoder geocoding.Geocoder
	region   geocoding.Region
	creator  Creator

	mu      sync.Mutex
	state   State
	start   *geo.Point
	end     *geo.Point
	message string
	// segment is set while a two-point flow is in progress or complete, so a
	// start point alone does not read as a point obstruction.
	segment bool
}

// EditorConfig holds the dependencies of an Editor.
type EditorConfig struct {
	ID       string
	Geocoder geocoding.Geocoder // nil when the maps API key is missing
	Region   geocoding.Region
	Creator  Creator
}

// NewEditor creates an idle editor.
func NewEditor(cfg EditorConfig) *Editor {
	return &Editor{
		id:       cfg.ID,
		geocoder: cfg.Geocoder,
		region:   cfg.Region,
		creator:  cfg.Creator,
		state:    StateIdle,
	}
}

// ID returns the session id.
func (e *Editor) ID() string {
	return e.id
}

// StartSegmentByMap begins picking a segment on the map.
func (e *Editor) StartSegmentByMap() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		return fmt.Errorf("start segment while %s: %w", e.state, ErrInvalidTransition)
	}
	e.start, e.end = nil, nil
	e.segment = true
	e.state = StatePickingStart
	e.message = MessagePickStart
	return nil
}

// MapClick feeds a click on the map into the editor.
func (e *Editor) MapClick(p geo.Point) error {
	if err := p.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StatePickingStart:
		e.start = &p
		e.state = StatePickingEnd
		e.message = MessagePickEnd
	case StatePickingEnd:
		e.end = &p
		e.state = StateIdle
		e.message = ""
	default:
		// Outside a segment flow a click selects a point obstruction.
		e.start, e.end = &p, nil
		e.segment = false
		e.message = ""
	}
	return nil
}

// DefineByAddresses geocodes both addresses with the editor's region bias and
// sets the segment. Nothing changes unless both resolve inside the region.
func (e *Editor) DefineByAddresses(ctx context.Context, startAddress, endAddress string) error {
	startAddress = strings.TrimSpace(startAddress)
	endAddress = strings.TrimSpace(endAddress)

	res := validation.Result{Valid: true}
	if startAddress == "" {
		res.Add("startAddress", "required", "is required")
	}
	if endAddress == "" {
		res.Add("endAddress", "required", "is required")
	}
	if !res.Valid {
		return &ValidationError{Errors: res.Errors}
	}
	if e.geocoder == nil {
		return geocoding.ErrNotConfigured
	}

	start, err := e.resolve(ctx, "start", startAddress)
	if err != nil {
		return err
	}
	end, err := e.resolve(ctx, "end", endAddress)
	if err != nil {
		return err
	}

	e.setSegment(start, end)
	return nil
}

func (e *Editor) resolve(ctx context.Context, which, address string) (geo.Point, error) {
	result, err := e.geocoder.Geocode(ctx, geocoding.Request{Address: address, Region: e.region})
	if err != nil {
		return geo.Point{}, &GeocodeError{Which: which, Address: address, Err: err}
	}
	if !e.region.Bounds.IsZero() && !e.region.Bounds.Contains(result.Point) {
		return geo.Point{}, &GeocodeError{Which: which, Address: address, Err: ErrOutsideRegion}
	}
	return result.Point, nil
}

// DefineByCoordinates sets the segment from four raw form values. Every
// field is checked before anything changes.
func (e *Editor) DefineByCoordinates(startLat, startLng, endLat, endLng string) error {
	res := validation.Result{Valid: true}
	sLat := parseField(&res, "startLat", startLat, 90)
	sLng := parseField(&res, "startLng", startLng, 180)
	eLat := parseField(&res, "endLat", endLat, 90)
	eLng := parseField(&res, "endLng", endLng, 180)
	if !res.Valid {
		return &ValidationError{Errors: res.Errors}
	}

	e.setSegment(geo.Point{Lat: sLat, Lng: sLng}, geo.Point{Lat: eLat, Lng: eLng})
	return nil
}

func parseField(res *validation.Result, field, raw string, limit float64) float64 {
	v, err := geo.ParseCoordinate(raw)
	if err != nil {
		res.Add(field, "number", "must be a number")
		return 0
	}
	if v < -limit || v > limit {
		res.Add(field, "range", fmt.Sprintf("must be between %g and %g", -limit, limit))
		return 0
	}
	return v
}

func (e *Editor) setSegment(start, end geo.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.start, e.end = &start, &end
	e.segment = true
	e.state = StateIdle
	e.message = ""
}

// Cancel abandons the selection in progress.
func (e *Editor) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateIdle && (e.start == nil || e.end == nil) {
		return fmt.Errorf("cancel while idle: %w", ErrInvalidTransition)
	}
	e.reset()
	return nil
}

// Close dismisses the details dialog and discards the selection.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Editor) reset() {
	e.start, e.end = nil, nil
	e.segment = false
	e.state = StateIdle
	e.message = ""
}

// Submit creates the obstruction from the dialog form and the selected
// location. On success the editor returns to idle; on failure the selection
// is kept so the form can be corrected.
func (e *Editor) Submit(ctx context.Context, form models.SegmentSubmitRequest) (*models.Obstruction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.segment && e.start != nil && e.end == nil && form.Type == models.ObstructionClosure {
		return nil, ErrClosureNeedsEnd
	}
	if !e.dialogOpen() {
		return nil, ErrDialogClosed
	}

	req := &models.ObstructionCreateRequest{
		Coordinates: toCoordinates(*e.start),
		Type:        form.Type,
		Title:       form.Title,
		Description: form.Description,
	}
	if form.Type == models.ObstructionClosure && e.end != nil {
		end := toCoordinates(*e.end)
		req.EndCoordinates = &end
	}

	if res := validation.Obstruction(req); !res.Valid {
		return nil, &ValidationError{Errors: res.Errors}
	}

	created, err := e.creator.Add(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating obstruction: %w", err)
	}
	e.reset()
	return created, nil
}

// dialogOpen holds when a start point exists and either the end point is
// set too or the selection is a point obstruction.
func (e *Editor) dialogOpen() bool {
	if e.start == nil {
		return false
	}
	return e.end != nil || (!e.segment && e.state == StateIdle)
}

// Snapshot returns the observable editor state.
func (e *Editor) Snapshot() models.SegmentSession {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := models.SegmentSession{
		ID:         e.id,
		State:      string(e.state),
		Message:    e.message,
		DialogOpen: e.dialogOpen(),
	}
	if e.start != nil {
		c := toCoordinates(*e.start)
		s.Start = &c
	}
	if e.end != nil {
		c := toCoordinates(*e.end)
		s.End = &c
	}
	if s.DialogOpen {
		if e.end != nil {
			s.DialogMode = string(DialogSegment)
			s.DefaultType = models.ObstructionClosure
		} else {
			s.DialogMode = string(DialogPoint)
		}
	}
	return s
}

func toCoordinates(p geo.Point) models.Coordinates {
	return models.Coordinates{Lat: p.Lat, Lng: p.Lng}
}
