// Package host defines the capabilities the toolkit requires from the
// embedding surface: trigger elements, the modal dialog and its container,
// the mounted purchase frame, page scroll, and external navigation. The
// toolkit owns decisions; implementations of these interfaces own rendering.
package host

// Attribute names of the trigger-element contract.
const (
	// AttrCTBID marks an element as a CTB trigger and carries its id.
	AttrCTBID = "data-ctb-id"
	// AttrAction is the trigger's action marker, stripped together with
	// the id on terminal failure.
	AttrAction = "data-action"
	// AttrContext optionally overrides the analytics context.
	AttrContext = "data-ctb-context"
	// AttrDisabled marks a trigger that must not open a modal.
	AttrDisabled = "disabled"
	// AttrHref is the trigger's plain-link destination fallback.
	AttrHref = "href"
	// AttrDialogDestroy marks close controls (close button, overlay).
	AttrDialogDestroy = "data-dialog-destroy"

	// Ancestor markers used for analytics context classification.
	AttrMarketplaceItem     = "data-marketplace-item"
	AttrNotificationWrapper = "data-notification-wrapper"
	AttrAppRoot             = "data-app-root"
)

// Element is a node on the embedding surface. Ancestor walks use Parent.
type Element interface {
	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool)
	// SetAttr sets an attribute.
	SetAttr(name, value string)
	// RemoveAttr removes an attribute if present.
	RemoveAttr(name string)
	// Parent returns the parent element, if any.
	Parent() (Element, bool)
	// Blur removes the focus ring from the element.
	Blur()
}

// Dialog is the accessible-dialog capability rendered around the modal.
type Dialog interface {
	// Show makes the dialog visible.
	Show()
	// Destroy tears the dialog down.
	Destroy()
}

// Frame is the purchase frame mounted inside the modal.
type Frame interface {
	// SetSrc points the frame at a URL.
	SetSrc(url string)
	// SetWidth sets the frame width in pixels.
	SetWidth(px int)
	// SetHeight sets the frame height in pixels.
	SetHeight(px int)
	// Post delivers a message into the frame.
	Post(message any) error
}

// Surface is the single reusable modal container. It is created once and
// cleared between sessions.
type Surface interface {
	// OpenShell renders overlay, loading indicator, and a hidden close
	// button into the container.
	OpenShell()
	// RevealClose makes the close button visible.
	RevealClose()
	// MountFrame replaces the loading indicator with a frame at the URL.
	MountFrame(url string) Frame
	// RenderError replaces the container content with an error panel.
	RenderError(title, body string)
	// Clear empties the container.
	Clear()
}

// Page controls the embedding page around the modal.
type Page interface {
	// LockScroll suppresses page scrolling while the modal is open.
	LockScroll()
	// UnlockScroll restores page scrolling.
	UnlockScroll()
}

// DialogFactory builds a fresh dialog instance per open attempt.
type DialogFactory func(surface Surface) Dialog
