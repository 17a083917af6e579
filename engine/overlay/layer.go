package overlay

import (
	"fmt"
	"sort"
	"sync"
)

// layer is the implementation of the Layer interface.
type layer struct {
	mu       sync.RWMutex
	elements map[string]Element
	order    []string
}

// Layer is an id-addressed registry of overlay elements drawn above the scene.
type Layer interface {
	// Add registers an element.
	//
	// Parameters:
	//   - e: the element to add
	//
	// Returns:
	//   - error: error if an element with the same id is already registered
	Add(e Element) error

	// Remove unregisters the element with the given id.
	//
	// Parameters:
	//   - id: the element id
	//
	// Returns:
	//   - Element: the removed element, or nil if none was registered
	Remove(id string) Element

	// Element looks an element up by id.
	//
	// Parameters:
	//   - id: the element id
	//
	// Returns:
	//   - Element: the element, or nil
	//   - bool: whether the element exists
	Element(id string) (Element, bool)

	// Elements returns every element in draw order: ascending z-index, then insertion order.
	//
	// Returns:
	//   - []Element: the elements
	Elements() []Element

	// Len returns the number of registered elements.
	Len() int
}

var _ Layer = &layer{}

// NewLayer creates an empty Layer, optionally seeded with elements.
// Elements with duplicate ids after the first are ignored.
//
// Parameters:
//   - elements: initial elements
//
// Returns:
//   - Layer: the new layer
func NewLayer(elements ...Element) Layer {
	l := &layer{
		elements: make(map[string]Element),
	}
	for _, e := range elements {
		_ = l.Add(e)
	}
	return l
}

func (l *layer) Add(e Element) error {
	if e == nil {
		return fmt.Errorf("overlay element is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.elements[e.ID()]; exists {
		return fmt.Errorf("overlay element %q already exists", e.ID())
	}
	l.elements[e.ID()] = e
	l.order = append(l.order, e.ID())
	return nil
}

func (l *layer) Remove(id string) Element {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.elements[id]
	if !ok {
		return nil
	}
	delete(l.elements, id)
	for i, existing := range l.order {
		if existing == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return e
}

func (l *layer) Element(id string) (Element, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.elements[id]
	return e, ok
}

func (l *layer) Elements() []Element {
	l.mu.RLock()
	out := make([]Element, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.elements[id])
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex() < out[j].ZIndex()
	})
	return out
}

func (l *layer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.elements)
}
