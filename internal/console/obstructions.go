package console

import (
	"context"
	"fmt"
	"sync"

	"github.com/tacnavial/tacnavial/internal/api/models"
)

// ObstructionsPanel is the admin obstruction list.
type ObstructionsPanel struct {
	actions  Actions
	notifier Notifier

	mu           sync.Mutex
	obstructions []models.Obstruction
	loading      bool
}

// NewObstructionsPanel creates an empty panel.
func NewObstructionsPanel(actions Actions, notifier Notifier) *ObstructionsPanel {
	return &ObstructionsPanel{actions: actions, notifier: notifier}
}

// Load fetches every obstruction.
func (p *ObstructionsPanel) Load(ctx context.Context) error {
	p.setLoading(true)
	defer p.setLoading(false)

	items, err := p.actions.Obstructions(ctx)
	if err != nil {
		p.notifier.Notify(failure("Error al Cargar Obstrucciones", "No se pudieron obtener las obstrucciones. Intente de nuevo."))
		return err
	}

	p.mu.Lock()
	p.obstructions = items
	p.mu.Unlock()
	return nil
}

// Add creates an obstruction and appends it to the list once the server
// has stored it.
func (p *ObstructionsPanel) Add(ctx context.Context, req *models.ObstructionCreateRequest) (*models.Obstruction, error) {
	p.setLoading(true)
	defer p.setLoading(false)

	o, err := p.actions.AddObstruction(ctx, req)
	if err != nil {
		p.notifier.Notify(failure("Error al Añadir Obstrucción", err.Error()))
		return nil, err
	}

	p.mu.Lock()
	p.obstructions = append(p.obstructions, *o)
	p.mu.Unlock()

	p.notifier.Notify(Notice{
		Title:       "Obstrucción Añadida",
		Description: fmt.Sprintf("%q se ha añadido al mapa.", o.Title),
	})
	return o, nil
}

// Remove deletes an obstruction. An unknown id is reported as a notice and
// is not an error.
func (p *ObstructionsPanel) Remove(ctx context.Context, id string) error {
	p.setLoading(true)
	defer p.setLoading(false)

	res, err := p.actions.RemoveObstruction(ctx, id)
	if err != nil {
		p.notifier.Notify(failure("Error al Eliminar Obstrucción", err.Error()))
		return err
	}
	if !res.Success {
		p.notifier.Notify(failure("Obstrucción no Encontrada", fmt.Sprintf("No existe una obstrucción con id %q.", id)))
		return nil
	}

	p.mu.Lock()
	kept := p.obstructions[:0]
	for _, o := range p.obstructions {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	p.obstructions = kept
	p.mu.Unlock()

	p.notifier.Notify(Notice{Title: "Obstrucción Eliminada", Description: fmt.Sprintf("Se eliminó la obstrucción %q.", id)})
	return nil
}

// Obstructions returns a copy of the displayed obstructions.
func (p *ObstructionsPanel) Obstructions() []models.Obstruction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Obstruction(nil), p.obstructions...)
}

// Loading reports whether a call is in flight.
func (p *ObstructionsPanel) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *ObstructionsPanel) setLoading(v bool) {
	p.mu.Lock()
	p.loading = v
	p.mu.Unlock()
}
