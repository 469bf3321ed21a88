// Package contracts holds the seams pkg/app composes a service from.
package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

// Handler mounts a service's API routes. Health and metrics routes are
// added by the application itself.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}

// Worker runs in the background until ctx is cancelled. Run must return
// promptly after cancellation so shutdown can wait for it.
type Worker interface {
	Run(ctx context.Context)
}
