package session

import (
	"context"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ctbkit/ctbkit/pkg/api"
	"github.com/ctbkit/ctbkit/pkg/host"
	"github.com/ctbkit/ctbkit/pkg/logx"
	"github.com/ctbkit/ctbkit/pkg/token/types"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en_US"

// ContextExternal is the default analytics context.
const ContextExternal = "external"

// Error panel bodies. The purchase branch is keyed on the literal error
// text "purchase"; no current producer emits it, but the branch is part of
// the panel contract.
const (
	errBodyPurchase = "We couldn't complete your purchase. Please try again later."
	errBodyGeneric  = "We couldn't load the product information. Please try again later."
)

// TokenSource is the slice of the token lifecycle the coordinator consumes:
// it reads the current token and persists a fallback-fetched URL as the new
// token, rearming the renewal timer.
type TokenSource interface {
	Current() (*types.Token, bool)
	PersistAndRearm(ctx context.Context, rawValue string) (*types.Token, error)
}

// Fetcher performs the per-CTB fallback fetch.
type Fetcher interface {
	FetchCtbURL(ctx context.Context, ctbID string) (string, error)
}

// EventRecorder records analytics events.
type EventRecorder interface {
	PostEvent(ctx context.Context, event api.Event) error
}

// Coordinator owns the single modal's lifecycle. Token renewal and modal
// lifecycle are independent: a renewal never disturbs an open modal's frame,
// and a close never cancels pending renewal.
type Coordinator struct {
	tokens  TokenSource
	fetcher Fetcher
	events  EventRecorder
	surface host.Surface
	page    host.Page
	opener  host.Opener
	dialogs host.DialogFactory
	locale  string
	brand   string
	pageID  string
	log     *logrus.Entry

	mu         sync.Mutex
	current    *Session
	dialog     host.Dialog
	frame      host.Frame
	generation uint64
}

// CoordinatorConfig wires a Coordinator.
type CoordinatorConfig struct {
	Tokens  TokenSource
	Fetcher Fetcher
	Events  EventRecorder
	Surface host.Surface
	Page    host.Page
	Opener  host.Opener
	Dialogs host.DialogFactory
	// Locale is applied to every frame URL; defaults to DefaultLocale.
	Locale string
	// Brand and PageID describe the embedding for analytics.
	Brand  string
	PageID string
	Logger *logrus.Entry
}

// NewCoordinator creates a modal session coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	locale := cfg.Locale
	if locale == "" {
		locale = DefaultLocale
	}
	log := cfg.Logger
	if log == nil {
		log = logx.WithComponent("session")
	}
	return &Coordinator{
		tokens:  cfg.Tokens,
		fetcher: cfg.Fetcher,
		events:  cfg.Events,
		surface: cfg.Surface,
		page:    cfg.Page,
		opener:  cfg.Opener,
		dialogs: cfg.Dialogs,
		locale:  locale,
		brand:   cfg.Brand,
		pageID:  cfg.PageID,
		log:     log,
	}
}

// Current returns the session currently owning the surface, if any.
func (c *Coordinator) Current() (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, false
	}
	return c.current, true
}

// OpenFor opens the modal for a trigger. The order is fixed: disable the
// trigger, open the shell, resolve token-or-fallback, render, analytics.
// analyticsContext classifies where the click came from; empty means
// ContextExternal.
func (c *Coordinator) OpenFor(ctx context.Context, ctbID string, trigger host.Element, destinationURL, analyticsContext string) *Session {
	if analyticsContext == "" {
		analyticsContext = ContextExternal
	}

	trigger.SetAttr(host.AttrDisabled, "true")

	c.mu.Lock()
	c.generation++
	session := &Session{
		ID:          uuid.New(),
		CTBID:       ctbID,
		State:       StateOpening,
		Trigger:     trigger,
		Destination: destinationURL,
		generation:  c.generation,
	}
	c.current = session
	c.frame = nil

	c.surface.OpenShell()
	c.dialog = c.dialogs(c.surface)
	c.dialog.Show()
	c.page.LockScroll()
	c.mu.Unlock()

	// Token path first. A malformed token is invalid at the point of use
	// and falls through to the fallback fetch, which owns re-enabling the
	// trigger.
	if tok, ok := c.tokens.Current(); ok && tok.RawValue != "" {
		frameURL, err := c.buildTokenFrameURL(tok.RawValue, ctbID)
		if err == nil {
			c.mountReady(session, frameURL, trigger)
			c.recordEvent(ctx, ctbID, analyticsContext)
			return session
		}
		c.log.WithError(err).Warn("current token unusable, falling back to fetch")
	}

	fetched, err := c.fetcher.FetchCtbURL(ctx, ctbID)

	// The fetch is the only suspension point in an open attempt; a
	// superseded session's completion must not touch the shared surface.
	if !c.isCurrent(session) {
		c.log.WithField("session", session.ID).Debug("stale open attempt dropped")
		return session
	}

	if err != nil {
		c.log.WithError(err).WithField("ctb_id", ctbID).Warn("fallback fetch failed")
		c.failTerminally(session, err.Error(), trigger)
		c.recordEvent(ctx, ctbID, analyticsContext)
		if destinationURL != "" {
			if oerr := c.opener.Open(destinationURL); oerr != nil {
				c.log.WithError(oerr).Warn("failed to open fallback destination")
			}
		}
		return session
	}

	trigger.RemoveAttr(host.AttrDisabled)
	// The fallback URL becomes the new token, rearming renewal.
	if _, perr := c.tokens.PersistAndRearm(ctx, fetched); perr != nil {
		c.log.WithError(perr).Warn("failed to persist fallback token")
	}
	c.mountReady(session, fetched+"&locale="+c.locale, trigger)
	c.recordEvent(ctx, ctbID, analyticsContext)
	return session
}

// buildTokenFrameURL parses the token URL and merges in the id and locale
// parameters.
func (c *Coordinator) buildTokenFrameURL(rawValue, ctbID string) (string, error) {
	u, err := url.Parse(rawValue)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("id", ctbID)
	q.Set("locale", c.locale)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// mountReady reveals the close button, mounts the frame, re-enables the
// trigger, and transitions the session to Ready.
func (c *Coordinator) mountReady(session *Session, frameURL string, trigger host.Element) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.surface.RevealClose()
	c.frame = c.surface.MountFrame(frameURL)
	trigger.RemoveAttr(host.AttrDisabled)
	session.State = StateReady
}

// failTerminally renders the error panel, degrades the trigger to a plain
// link, and closes the modal.
func (c *Coordinator) failTerminally(session *Session, message string, trigger host.Element) {
	c.ShowError(message, trigger)
	session.State = StateError
	c.Close()
}

// ShowError renders the inline error panel and strips the CTB markers from
// the trigger so subsequent clicks degrade to plain navigation.
func (c *Coordinator) ShowError(message string, trigger host.Element) {
	body := errBodyGeneric
	if message == "purchase" {
		body = errBodyPurchase
	}

	c.mu.Lock()
	c.surface.RenderError(message, body)
	c.mu.Unlock()

	trigger.RemoveAttr(host.AttrCTBID)
	trigger.RemoveAttr(host.AttrAction)
}

// Close destroys the dialog, restores page scroll, clears the container,
// and re-enables the session's triggering element. Calling Close with no
// open session is a no-op.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dialog == nil && c.current == nil {
		return
	}

	if c.dialog != nil {
		c.dialog.Destroy()
		c.dialog = nil
	}
	c.page.UnlockScroll()
	c.surface.Clear()
	if c.current != nil && c.current.Trigger != nil {
		c.current.Trigger.RemoveAttr(host.AttrDisabled)
	}
	c.current = nil
	c.frame = nil
}

// SetFrameWidth sets the live frame's width. No-op without a mounted frame.
func (c *Coordinator) SetFrameWidth(px int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame != nil {
		c.frame.SetWidth(px)
	}
}

// SetFrameHeight sets the live frame's height. No-op without a mounted frame.
func (c *Coordinator) SetFrameHeight(px int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame != nil {
		c.frame.SetHeight(px)
	}
}

// PostToFrame delivers a message into the live frame. No-op without a
// mounted frame.
func (c *Coordinator) PostToFrame(message any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame == nil {
		return nil
	}
	return c.frame.Post(message)
}

// isCurrent reports whether the session still owns the surface.
func (c *Coordinator) isCurrent(session *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.generation == session.generation
}

// recordEvent records the single analytics event for a completed open
// attempt. Failures are logged, never retried, never user-visible.
func (c *Coordinator) recordEvent(ctx context.Context, ctbID, analyticsContext string) {
	event := api.ModalOpenedEvent(ctbID, c.brand, analyticsContext, c.pageID)
	if err := c.events.PostEvent(ctx, event); err != nil {
		c.log.WithError(err).Warn("failed to record modal opened event")
	}
}
