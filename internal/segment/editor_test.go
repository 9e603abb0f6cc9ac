package segment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/geo"
	"github.com/tacnavial/tacnavial/internal/geocoding"
	"github.com/tacnavial/tacnavial/internal/segment"
)

var (
	p1 = geo.Point{Lat: -18.0140, Lng: -70.2530}
	p2 = geo.Point{Lat: -18.0135, Lng: -70.2520}
)

type stubGeocoder map[string]geo.Point

func (g stubGeocoder) Geocode(_ context.Context, req geocoding.Request) (*geocoding.Result, error) {
	p, ok := g[req.Address]
	if !ok {
		return nil, geocoding.ErrNoResults
	}
	return &geocoding.Result{Point: p}, nil
}

type recordingCreator struct {
	got []*models.ObstructionCreateRequest
	err error
}

func (c *recordingCreator) Add(_ context.Context, in *models.ObstructionCreateRequest) (*models.Obstruction, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.got = append(c.got, in)
	return &models.Obstruction{
		ID:             "obs-1",
		Coordinates:    in.Coordinates,
		EndCoordinates: in.EndCoordinates,
		Type:           in.Type,
		Title:          in.Title,
		Description:    in.Description,
	}, nil
}

func newEditor(creator segment.Creator, gc geocoding.Geocoder) *segment.Editor {
	return segment.NewEditor(segment.EditorConfig{
		ID:       "test",
		Geocoder: gc,
		Region:   geocoding.TacnaRegion,
		Creator:  creator,
	})
}

func validForm(t models.ObstructionType) models.SegmentSubmitRequest {
	return models.SegmentSubmitRequest{
		Type:        t,
		Title:       "Cierre de calle",
		Description: "Calle cerrada por obras de alcantarillado.",
	}
}

func coords(p geo.Point) *models.Coordinates {
	return &models.Coordinates{Lat: p.Lat, Lng: p.Lng}
}

func TestEditor_SegmentByMap(t *testing.T) {
	e := newEditor(&recordingCreator{}, nil)

	require.NoError(t, e.StartSegmentByMap())
	s := e.Snapshot()
	assert.Equal(t, "pickingStart", s.State)
	assert.Equal(t, segment.MessagePickStart, s.Message)
	assert.False(t, s.DialogOpen)

	require.NoError(t, e.MapClick(p1))
	s = e.Snapshot()
	assert.Equal(t, "pickingEnd", s.State)
	assert.Equal(t, coords(p1), s.Start)
	assert.Nil(t, s.End)
	assert.False(t, s.DialogOpen, "dialog stays closed while waiting for the end click")

	require.NoError(t, e.MapClick(p2))
	s = e.Snapshot()
	assert.Equal(t, "idle", s.State)
	assert.Equal(t, coords(p1), s.Start)
	assert.Equal(t, coords(p2), s.End)
	assert.True(t, s.DialogOpen)
	assert.Equal(t, "segment", s.DialogMode)
	assert.Equal(t, models.ObstructionClosure, s.DefaultType)
	assert.Empty(t, s.Message)
}

func TestEditor_PointClick(t *testing.T) {
	e := newEditor(&recordingCreator{}, nil)

	require.NoError(t, e.MapClick(p1))
	s := e.Snapshot()
	assert.Equal(t, "idle", s.State)
	assert.Equal(t, coords(p1), s.Start)
	assert.Nil(t, s.End)
	assert.True(t, s.DialogOpen)
	assert.Equal(t, "point", s.DialogMode)
	assert.Empty(t, s.DefaultType, "type is left for the user")

	// A second click moves the point.
	require.NoError(t, e.MapClick(p2))
	assert.Equal(t, coords(p2), e.Snapshot().Start)
}

func TestEditor_ClickOutOfRange(t *testing.T) {
	e := newEditor(&recordingCreator{}, nil)
	err := e.MapClick(geo.Point{Lat: 91, Lng: 0})
	assert.ErrorIs(t, err, geo.ErrLatitudeOutOfRange)
	assert.Nil(t, e.Snapshot().Start)
}

func TestEditor_CancelMidSegment(t *testing.T) {
	e := newEditor(&recordingCreator{}, nil)
	require.NoError(t, e.StartSegmentByMap())
	require.NoError(t, e.MapClick(p1))

	require.NoError(t, e.Cancel())
	s := e.Snapshot()
	assert.Equal(t, "idle", s.State)
	assert.Nil(t, s.Start)
	assert.Nil(t, s.End)
	assert.Empty(t, s.Message)
	assert.False(t, s.DialogOpen)
}

func TestEditor_CancelAvailability(t *testing.T) {
	e := newEditor(&recordingCreator{}, nil)
	assert.ErrorIs(t, e.Cancel(), segment.ErrInvalidTransition, "nothing to cancel")

	require.NoError(t, e.MapClick(p1))
	assert.ErrorIs(t, e.Cancel(), segment.ErrInvalidTransition, "point selection is closed, not cancelled")

	require.NoError(t, e.DefineByCoordinates("-18.014", "-70.253", "-18.0135", "-70.252"))
	assert.NoError(t, e.Cancel(), "a complete segment can be cancelled")
}

func TestEditor_StartOnlyFromIdle(t *testing.T) {
	e := newEditor(&recordingCreator{}, nil)
	require.NoError(t, e.StartSegmentByMap())
	assert.ErrorIs(t, e.StartSegmentByMap(), segment.ErrInvalidTransition)
}

func TestEditor_StartClearsPreviousSelection(t *testing.T) {
	e := newEditor(&recordingCreator{}, nil)
	require.NoError(t, e.MapClick(p1))
	require.NoError(t, e.StartSegmentByMap())
	s := e.Snapshot()
	assert.Nil(t, s.Start)
	assert.False(t, s.DialogOpen)
}

func TestEditor_DefineByAddresses(t *testing.T) {
	gc := stubGeocoder{
		"Av. Bolognesi 100": p1,
		"Av. Bolognesi 500": p2,
		"Jr. de la Unión, Lima": {Lat: -12.0464, Lng: -77.0428},
	}

	t.Run("both resolve", func(t *testing.T) {
		e := newEditor(&recordingCreator{}, gc)
		require.NoError(t, e.StartSegmentByMap())
		require.NoError(t, e.DefineByAddresses(context.Background(), "Av. Bolognesi 100", "Av. Bolognesi 500"))

		s := e.Snapshot()
		assert.Equal(t, "idle", s.State)
		assert.Equal(t, coords(p1), s.Start)
		assert.Equal(t, coords(p2), s.End)
		assert.True(t, s.DialogOpen)
		assert.Equal(t, "segment", s.DialogMode)
	})

	t.Run("end unresolvable", func(t *testing.T) {
		e := newEditor(&recordingCreator{}, gc)
		err := e.DefineByAddresses(context.Background(), "Av. Bolognesi 100", "Calle Falsa 123")

		var gerr *segment.GeocodeError
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, "end", gerr.Which)
		assert.Equal(t, "Calle Falsa 123", gerr.Address)
		assert.ErrorIs(t, err, geocoding.ErrNoResults)

		s := e.Snapshot()
		assert.Nil(t, s.Start)
		assert.Nil(t, s.End)
	})

	t.Run("start outside region", func(t *testing.T) {
		e := newEditor(&recordingCreator{}, gc)
		err := e.DefineByAddresses(context.Background(), "Jr. de la Unión, Lima", "Av. Bolognesi 500")

		var gerr *segment.GeocodeError
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, "start", gerr.Which)
		assert.ErrorIs(t, err, segment.ErrOutsideRegion)
		assert.Nil(t, e.Snapshot().Start)
	})

	t.Run("blank addresses", func(t *testing.T) {
		e := newEditor(&recordingCreator{}, gc)
		err := e.DefineByAddresses(context.Background(), " ", "")

		var verr *segment.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Errors, 2)
	})

	t.Run("no geocoder", func(t *testing.T) {
		e := newEditor(&recordingCreator{}, nil)
		err := e.DefineByAddresses(context.Background(), "Av. Bolognesi 100", "Av. Bolognesi 500")
		assert.ErrorIs(t, err, geocoding.ErrNotConfigured)
	})
}

func TestEditor_DefineByCoordinates(t *testing.T) {
	tests := []struct {
		name       string
		in         [4]string
		wantFields []string
	}{
		{"valid", [4]string{"-18.014", "-70.253", "-18.0135", "-70.252"}, nil},
		{"not a number", [4]string{"abc", "-70.253", "-18.0135", "-70.252"}, []string{"startLat"}},
		{"empty end", [4]string{"-18.014", "-70.253", "", ""}, []string{"endLat", "endLng"}},
		{"out of range", [4]string{"-18.014", "-181", "91", "-70.252"}, []string{"startLng", "endLat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(&recordingCreator{}, nil)
			err := e.DefineByCoordinates(tt.in[0], tt.in[1], tt.in[2], tt.in[3])

			if tt.wantFields == nil {
				require.NoError(t, err)
				s := e.Snapshot()
				assert.Equal(t, &models.Coordinates{Lat: -18.014, Lng: -70.253}, s.Start)
				assert.True(t, s.DialogOpen)
				return
			}

			var verr *segment.ValidationError
			require.ErrorAs(t, err, &verr)
			fields := make([]string, 0, len(verr.Errors))
			for _, fe := range verr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
			assert.Nil(t, e.Snapshot().Start, "no mutation on invalid input")
		})
	}
}

func TestEditor_SubmitSegment(t *testing.T) {
	creator := &recordingCreator{}
	e := newEditor(creator, nil)
	require.NoError(t, e.StartSegmentByMap())
	require.NoError(t, e.MapClick(p1))
	require.NoError(t, e.MapClick(p2))

	created, err := e.Submit(context.Background(), validForm(models.ObstructionClosure))
	require.NoError(t, err)
	require.NotNil(t, created.EndCoordinates)
	assert.Equal(t, *coords(p2), *created.EndCoordinates)

	s := e.Snapshot()
	assert.Equal(t, "idle", s.State)
	assert.Nil(t, s.Start)
	assert.False(t, s.DialogOpen)
}

func TestEditor_SubmitSegmentAsNonClosureDropsEnd(t *testing.T) {
	creator := &recordingCreator{}
	e := newEditor(creator, nil)
	require.NoError(t, e.DefineByCoordinates("-18.014", "-70.253", "-18.0135", "-70.252"))

	_, err := e.Submit(context.Background(), validForm(models.ObstructionConstruction))
	require.NoError(t, err)
	require.Len(t, creator.got, 1)
	assert.Nil(t, creator.got[0].EndCoordinates)
}

func TestEditor_SubmitPoint(t *testing.T) {
	creator := &recordingCreator{}
	e := newEditor(creator, nil)
	require.NoError(t, e.MapClick(p1))

	created, err := e.Submit(context.Background(), validForm(models.ObstructionClosure))
	require.NoError(t, err)
	assert.Nil(t, created.EndCoordinates, "a point closure stays a point")
}

func TestEditor_ClosureWithoutEnd(t *testing.T) {
	creator := &recordingCreator{}
	e := newEditor(creator, nil)
	require.NoError(t, e.StartSegmentByMap())
	require.NoError(t, e.MapClick(p1))

	_, err := e.Submit(context.Background(), validForm(models.ObstructionClosure))
	assert.ErrorIs(t, err, segment.ErrClosureNeedsEnd)
	assert.Empty(t, creator.got)

	_, err = e.Submit(context.Background(), validForm(models.ObstructionEvent))
	assert.ErrorIs(t, err, segment.ErrDialogClosed)
}

func TestEditor_SubmitWithoutSelection(t *testing.T) {
	e := newEditor(&recordingCreator{}, nil)
	_, err := e.Submit(context.Background(), validForm(models.ObstructionAccident))
	assert.ErrorIs(t, err, segment.ErrDialogClosed)
}

func TestEditor_SubmitInvalidFormKeepsSelection(t *testing.T) {
	creator := &recordingCreator{}
	e := newEditor(creator, nil)
	require.NoError(t, e.MapClick(p1))

	_, err := e.Submit(context.Background(), models.SegmentSubmitRequest{Type: models.ObstructionOther, Title: "x", Description: "y"})
	var verr *segment.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, creator.got)
	assert.True(t, e.Snapshot().DialogOpen)
}

func TestEditor_SubmitStoreFailureKeepsSelection(t *testing.T) {
	e := newEditor(&recordingCreator{err: errors.New("db down")}, nil)
	require.NoError(t, e.MapClick(p1))

	_, err := e.Submit(context.Background(), validForm(models.ObstructionOther))
	require.Error(t, err)
	assert.True(t, e.Snapshot().DialogOpen)
}

func TestEditor_Close(t *testing.T) {
	e := newEditor(&recordingCreator{}, nil)
	require.NoError(t, e.MapClick(p1))
	e.Close()
	s := e.Snapshot()
	assert.Nil(t, s.Start)
	assert.False(t, s.DialogOpen)
}

func TestStore_Sessions(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := segment.NewStore(segment.StoreConfig{
		Logger:  zerolog.Nop(),
		IdleTTL: time.Minute,
		Now:     func() time.Time { return now },
	})

	a := store.Create()
	b := store.Create()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, store.Len())

	got, err := store.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, segment.ErrSessionNotFound)

	now = now.Add(45 * time.Second)
	_, err = store.Get(a.ID()) // refreshes a
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, store.Sweep(), "b expired")
	_, err = store.Get(b.ID())
	assert.ErrorIs(t, err, segment.ErrSessionNotFound)

	assert.True(t, store.Delete(a.ID()))
	assert.False(t, store.Delete(a.ID()))
	assert.Zero(t, store.Len())
}
