// Package click routes delegated click events on the embedding surface into
// the modal session flow, enforcing the capability gate and the trigger
// disabled-state guard.
package click

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ctbkit/ctbkit/pkg/gate"
	"github.com/ctbkit/ctbkit/pkg/host"
	"github.com/ctbkit/ctbkit/pkg/logx"
	"github.com/ctbkit/ctbkit/pkg/session"
)

// Event is a delegated click.
type Event struct {
	Target host.Element
}

// Coordinator is the slice of the session coordinator the router drives.
type Coordinator interface {
	OpenFor(ctx context.Context, ctbID string, trigger host.Element, destinationURL, analyticsContext string) *session.Session
	Close()
}

// EnvFunc supplies the runtime environment the capability gate evaluates
// against.
type EnvFunc func() map[string]any

// Router is the single delegated click handler.
type Router struct {
	coordinator Coordinator
	gate        *gate.Gate
	env         EnvFunc
	log         *logrus.Entry
}

// NewRouter creates a click router.
func NewRouter(coordinator Coordinator, g *gate.Gate, env EnvFunc) *Router {
	if env == nil {
		env = func() map[string]any { return nil }
	}
	return &Router{
		coordinator: coordinator,
		gate:        g,
		env:         env,
		log:         logx.WithComponent("click"),
	}
}

// HandleClick processes one click. It returns true when the event was
// consumed and default navigation must be suppressed; false lets the
// element behave as an ordinary link.
func (r *Router) HandleClick(ctx context.Context, ev Event) bool {
	if ev.Target == nil {
		return false
	}

	// Close controls win over everything else.
	if _, ok := ev.Target.Attr(host.AttrDialogDestroy); ok {
		r.coordinator.Close()
		return true
	}

	trigger, ok := host.Closest(ev.Target, host.AttrCTBID)
	if !ok {
		return false
	}

	if _, disabled := trigger.Attr(host.AttrDisabled); disabled {
		return false
	}

	ev.Target.Blur()

	// Gate failure means the page may not use global CTB at all: the
	// default link navigation proceeds unmodified.
	if !r.gate.Allowed(r.env()) {
		r.log.Debug("capability gate closed, passing click through")
		return false
	}

	ctbID, _ := trigger.Attr(host.AttrCTBID)
	href, _ := trigger.Attr(host.AttrHref)

	r.coordinator.OpenFor(ctx, ctbID, trigger, href, DetermineContext(trigger))
	return true
}

// DetermineContext classifies where a CTB click came from, for analytics
// only. Precedence: explicit context attribute on the trigger, then the
// nearest marked ancestor, then the external default.
func DetermineContext(trigger host.Element) string {
	if ctx, ok := trigger.Attr(host.AttrContext); ok && ctx != "" {
		return ctx
	}
	if _, ok := host.Closest(trigger, host.AttrMarketplaceItem); ok {
		return "marketplace"
	}
	if _, ok := host.Closest(trigger, host.AttrNotificationWrapper); ok {
		return "notification"
	}
	if _, ok := host.Closest(trigger, host.AttrAppRoot); ok {
		return "app"
	}
	return session.ContextExternal
}
