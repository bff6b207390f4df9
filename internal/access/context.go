package access

import (
	"context"

	"github.com/kiranshivaraju/logtrail/pkg/models"
)

type contextKey struct{}

// WithApplication attaches a resolved application to ctx.
func WithApplication(ctx context.Context, app *models.Application) context.Context {
	return context.WithValue(ctx, contextKey{}, app)
}

// ApplicationFrom returns the application resolved for this request.
func ApplicationFrom(ctx context.Context) (*models.Application, bool) {
	app, ok := ctx.Value(contextKey{}).(*models.Application)
	return app, ok && app != nil
}
