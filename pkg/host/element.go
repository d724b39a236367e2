package host

import "sync"

// MapElement is an attribute-map backed Element. It serves tests and the
// CLI dry-run surface; real embeddings adapt their own node type.
type MapElement struct {
	mu      sync.Mutex
	attrs   map[string]string
	parent  *MapElement
	Blurred bool
}

// NewMapElement creates an element with the given attributes.
func NewMapElement(attrs map[string]string) *MapElement {
	copied := make(map[string]string, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	return &MapElement{attrs: copied}
}

// WithParent attaches a parent and returns the element for chaining.
func (e *MapElement) WithParent(parent *MapElement) *MapElement {
	e.parent = parent
	return e
}

// Attr returns the attribute value and whether it is present.
func (e *MapElement) Attr(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.attrs[name]
	return v, ok
}

// SetAttr sets an attribute.
func (e *MapElement) SetAttr(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
}

// RemoveAttr removes an attribute if present.
func (e *MapElement) RemoveAttr(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.attrs, name)
}

// Parent returns the parent element, if any.
func (e *MapElement) Parent() (Element, bool) {
	if e.parent == nil {
		return nil, false
	}
	return e.parent, true
}

// Blur records focus removal.
func (e *MapElement) Blur() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Blurred = true
}

// Closest walks ancestor-or-self looking for an element carrying the
// attribute, mirroring the delegated-click lookup.
func Closest(el Element, attr string) (Element, bool) {
	for current := el; current != nil; {
		if _, ok := current.Attr(attr); ok {
			return current, true
		}
		parent, ok := current.Parent()
		if !ok {
			break
		}
		current = parent
	}
	return nil, false
}
