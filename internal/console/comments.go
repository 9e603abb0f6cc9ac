package console

import (
	"context"
	"sort"
	"sync"

	"github.com/tacnavial/tacnavial/internal/api/models"
)

// CommentsFeed lists comments newest first and submits new ones.
type CommentsFeed struct {
	actions  Actions
	notifier Notifier

	mu         sync.Mutex
	comments   []models.Comment
	loading    bool
	submitting bool
}

// NewCommentsFeed creates an empty feed.
func NewCommentsFeed(actions Actions, notifier Notifier) *CommentsFeed {
	return &CommentsFeed{actions: actions, notifier: notifier}
}

// Load fetches the comments and sorts them by submission time, newest first.
func (f *CommentsFeed) Load(ctx context.Context) error {
	f.set(&f.loading, true)
	defer f.set(&f.loading, false)

	comments, err := f.actions.Comments(ctx)
	if err != nil {
		f.notifier.Notify(failure("Error al Cargar Comentarios", "No se pudieron obtener los comentarios. Intente de nuevo."))
		return err
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].SubmittedAt.Time().After(comments[j].SubmittedAt.Time())
	})

	f.mu.Lock()
	f.comments = comments
	f.mu.Unlock()
	return nil
}

// Submit sends a comment and shows it at the top of the feed.
func (f *CommentsFeed) Submit(ctx context.Context, req *models.CommentSubmitRequest) (*models.Comment, error) {
	f.set(&f.submitting, true)
	defer f.set(&f.submitting, false)

	c, err := f.actions.SubmitComment(ctx, req)
	if err != nil {
		f.notifier.Notify(failure("Error al Enviar", "Hubo un error al enviar su comentario. Intente de nuevo."))
		return nil, err
	}

	f.mu.Lock()
	f.comments = append([]models.Comment{*c}, f.comments...)
	f.mu.Unlock()

	f.notifier.Notify(Notice{
		Title:       "¡Comentario Enviado!",
		Description: "Gracias por su aporte. La municipalidad revisará su comentario.",
	})
	return c, nil
}

// Comments returns a copy of the displayed comments.
func (f *CommentsFeed) Comments() []models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Comment(nil), f.comments...)
}

// Loading reports whether a load is in flight.
func (f *CommentsFeed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Submitting reports whether a submission is in flight.
func (f *CommentsFeed) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *CommentsFeed) set(flag *bool, v bool) {
	f.mu.Lock()
	*flag = v
	f.mu.Unlock()
}
