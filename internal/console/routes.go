package console

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/optimistic"
)

// ErrUnknownRoute is returned when toggling a route that is not displayed.
var ErrUnknownRoute = errors.New("route not loaded")

// RoutesPanel is the admin route management table.
type RoutesPanel struct {
	actions  Actions
	notifier Notifier

	mu      sync.Mutex
	routes  []models.Route
	loading bool
}

// NewRoutesPanel creates an empty panel.
func NewRoutesPanel(actions Actions, notifier Notifier) *RoutesPanel {
	return &RoutesPanel{actions: actions, notifier: notifier}
}

// Load fetches the routes and sorts them by id.
func (p *RoutesPanel) Load(ctx context.Context) error {
	p.setLoading(true)
	defer p.setLoading(false)

	routes, err := p.actions.Routes(ctx)
	if err != nil {
		p.notifier.Notify(failure("Error al Cargar Rutas", "No se pudieron obtener las rutas. Intente de nuevo."))
		return err
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })

	p.mu.Lock()
	p.routes = routes
	p.mu.Unlock()
	return nil
}

// Toggle flips the route locally, asks the server to do the same and rolls
// the table back if the server does not confirm.
func (p *RoutesPanel) Toggle(ctx context.Context, id string) error {
	p.mu.Lock()
	idx := p.indexLocked(id)
	var name string
	if idx >= 0 {
		name = p.routes[idx].Name
	}
	p.mu.Unlock()
	if idx < 0 {
		return fmt.Errorf("%s: %w", id, ErrUnknownRoute)
	}

	var updated *models.Route
	err := optimistic.Apply(ctx, optimistic.Op[[]models.Route]{
		Snapshot: p.Routes,
		Apply: func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if i := p.indexLocked(id); i >= 0 {
				p.routes[i].Status = flipped(p.routes[i].Status)
			}
		},
		Confirm: func(ctx context.Context) (bool, error) {
			r, err := p.actions.ToggleRoute(ctx, id)
			if err != nil {
				return false, err
			}
			updated = r
			return r != nil, nil
		},
		Restore: func(snapshot []models.Route) {
			p.mu.Lock()
			p.routes = snapshot
			p.mu.Unlock()
		},
	})
	if err != nil {
		p.notifier.Notify(failure("Error al Actualizar", fmt.Sprintf("No se pudo cambiar el estado de la ruta %q.", name)))
		return err
	}

	// The server copy wins over the local guess.
	p.mu.Lock()
	if i := p.indexLocked(id); i >= 0 {
		p.routes[i] = *updated
	}
	p.mu.Unlock()

	p.notifier.Notify(Notice{
		Title:       "Estado de Ruta Actualizado",
		Description: fmt.Sprintf("La ruta %q ahora está %s.", updated.Name, StatusLabel(updated.Status)),
	})
	return nil
}

// flipped is the local guess; congested is left alone and the server
// rejects it.
func flipped(s models.RouteStatus) models.RouteStatus {
	switch s {
	case models.RouteOpen:
		return models.RouteBlocked
	case models.RouteBlocked:
		return models.RouteOpen
	default:
		return s
	}
}

// StatusLabel returns the Spanish label for a route status.
func StatusLabel(s models.RouteStatus) string {
	switch s {
	case models.RouteOpen:
		return "abierta"
	case models.RouteBlocked:
		return "bloqueada"
	case models.RouteCongested:
		return "congestionada"
	default:
		return string(s)
	}
}

func (p *RoutesPanel) indexLocked(id string) int {
	for i := range p.routes {
		if p.routes[i].ID == id {
			return i
		}
	}
	return -1
}

// Routes returns a copy of the displayed routes.
func (p *RoutesPanel) Routes() []models.Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Route(nil), p.routes...)
}

// Loading reports whether a load is in flight.
func (p *RoutesPanel) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *RoutesPanel) setLoading(v bool) {
	p.mu.Lock()
	p.loading = v
	p.mu.Unlock()
}
