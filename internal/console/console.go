// Package console is the admin and public view-model layer: it loads data
// through Actions, keeps the displayed copy, applies optimistic updates and
// turns every failure into a notice.
package console

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
)

// Actions is the remote surface the console drives. internal/client
// implements it over HTTP.
type Actions interface {
	Routes(ctx context.Context) ([]models.Route, error)
	// ToggleRoute returns nil without error when the route does not exist.
	ToggleRoute(ctx context.Context, id string) (*models.Route, error)
	Comments(ctx context.Context) ([]models.Comment, error)
	SubmitComment(ctx context.Context, req *models.CommentSubmitRequest) (*models.Comment, error)
	Obstructions(ctx context.Context) ([]models.Obstruction, error)
	AddObstruction(ctx context.Context, req *models.ObstructionCreateRequest) (*models.Obstruction, error)
	RemoveObstruction(ctx context.Context, id string) (*models.RemoveResult, error)
}

// Notice is a user-visible notification.
type Notice struct {
	Title       string
	Description string
	Destructive bool
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f.
func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that logs every notice.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n at info level, or warn when destructive.
func (l *LogNotifier) Notify(n Notice) {
	ev := l.logger.Info()
	if n.Destructive {
		ev = l.logger.Warn()
	}
	ev.Str("title", n.Title).Msg(n.Description)
}

func failure(title, description string) Notice {
	return Notice{Title: title, Description: description, Destructive: true}
}
