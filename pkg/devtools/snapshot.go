// Package devtools provides a read-only diagnostics walk over a running
// element and render tree, plus a thin opt-in HTTP server exposing it.
//
// The snapshot functions are pure: they never mutate the tree, and every
// optional bit of data (constraints, offsets, state presence) is read
// through a type assertion so a custom Element or RenderObject that
// doesn't implement the optional getter still serializes cleanly instead
// of panicking.
package devtools

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/go-drift/drift/pkg/core"
	"github.com/go-drift/drift/pkg/keys"
	"github.com/go-drift/drift/pkg/layout"
)

// maxTreeDepth guards against stack overflow from a malformed or cyclic
// tree; a snapshot simply stops descending past this depth rather than
// failing the whole walk.
const maxTreeDepth = 500

// WidgetTreeNode is a JSON-serializable snapshot of one element and its
// configuring widget.
type WidgetTreeNode struct {
	WidgetType  string           `json:"widgetType"`
	ElementType string           `json:"elementType"`
	Key         any              `json:"key,omitempty"`
	Depth       int              `json:"depth"`
	NeedsBuild  bool             `json:"needsBuild"`
	HasState    bool             `json:"hasState,omitempty"`
	Children    []WidgetTreeNode `json:"children,omitempty"`
}

// RenderTreeNode is a JSON-serializable snapshot of one render object.
type RenderTreeNode struct {
	Type              string           `json:"type"`
	Size              SafeSize         `json:"size"`
	Constraints       *SafeConstraints `json:"constraints,omitempty"`
	Offset            SafeOffset       `json:"offset"`
	Depth             int              `json:"depth"`
	NeedsLayout       bool             `json:"needsLayout"`
	NeedsPaint        bool             `json:"needsPaint"`
	IsRepaintBoundary bool             `json:"isRepaintBoundary"`
	Children          []RenderTreeNode `json:"children,omitempty"`
}

// SafeFloat wraps a float64 so Inf/NaN — which a broken layout can easily
// produce — encode as strings instead of making json.Marshal fail outright.
type SafeFloat float64

func (f SafeFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	default:
		return json.Marshal(v)
	}
}

// SafeSize is a JSON-safe graphics.Size.
type SafeSize struct {
	Width  SafeFloat `json:"width"`
	Height SafeFloat `json:"height"`
}

// SafeOffset is a JSON-safe graphics.Offset.
type SafeOffset struct {
	X SafeFloat `json:"x"`
	Y SafeFloat `json:"y"`
}

// SafeConstraints is a JSON-safe layout.Constraints.
type SafeConstraints struct {
	MinWidth  SafeFloat `json:"minWidth"`
	MaxWidth  SafeFloat `json:"maxWidth"`
	MinHeight SafeFloat `json:"minHeight"`
	MaxHeight SafeFloat `json:"maxHeight"`
}

// SnapshotWidgetTree walks the element tree rooted at root and returns a
// serializable snapshot. Safe to call from any goroutine as long as root's
// subtree isn't concurrently mutated during the walk (the same contract
// the reconciler itself requires of a BuildOwner's tree).
func SnapshotWidgetTree(root core.Element) WidgetTreeNode {
	return serializeWidgetTree(root, 0)
}

func serializeWidgetTree(elem core.Element, depth int) WidgetTreeNode {
	if elem == nil {
		return WidgetTreeNode{ElementType: "<nil>"}
	}

	node := WidgetTreeNode{
		ElementType: reflect.TypeOf(elem).String(),
		Depth:       elem.Depth(),
		NeedsBuild:  getNeedsBuild(elem),
	}

	if widget := elem.Widget(); widget != nil {
		node.WidgetType = reflect.TypeOf(widget).String()
		node.Key = safeKey(widget.Key())
	}

	if _, ok := elem.(*core.StatefulElement); ok {
		node.HasState = true
	}

	if depth < maxTreeDepth {
		elem.VisitChildren(func(child core.Element) bool {
			node.Children = append(node.Children, serializeWidgetTree(child, depth+1))
			return true
		})
	}

	return node
}

// safeKey converts a widget key to a JSON-safe value, stringifying
// anything that isn't already a JSON scalar (funcs, pointers, structs
// wrapping pkg/keys types, etc.).
func safeKey(key any) any {
	if key == nil {
		return nil
	}
	switch key.(type) {
	case string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, bool:
		return key
	default:
		return fmt.Sprintf("%v", key)
	}
}

func getNeedsBuild(elem core.Element) bool {
	if nb, ok := elem.(interface{ NeedsBuild() bool }); ok {
		return nb.NeedsBuild()
	}
	return false
}

// SnapshotRenderTree walks the render tree rooted at root and returns a
// serializable snapshot. Like SnapshotWidgetTree, call it only when root's
// subtree is otherwise quiescent (e.g. between frames).
func SnapshotRenderTree(root layout.RenderObject) RenderTreeNode {
	return serializeRenderTree(root, 0)
}

func serializeRenderTree(obj layout.RenderObject, depth int) RenderTreeNode {
	size := obj.Size()
	node := RenderTreeNode{
		Type: reflect.TypeOf(obj).String(),
		Size: SafeSize{
			Width:  SafeFloat(size.Width),
			Height: SafeFloat(size.Height),
		},
		NeedsLayout:       getNeedsLayout(obj),
		NeedsPaint:        getNeedsPaint(obj),
		IsRepaintBoundary: obj.IsRepaintBoundary(),
	}

	if getter, ok := obj.(interface{ Constraints() layout.Constraints }); ok {
		c := getter.Constraints()
		node.Constraints = &SafeConstraints{
			MinWidth:  SafeFloat(c.MinWidth),
			MaxWidth:  SafeFloat(c.MaxWidth),
			MinHeight: SafeFloat(c.MinHeight),
			MaxHeight: SafeFloat(c.MaxHeight),
		}
	}

	if getter, ok := obj.(interface{ Depth() int }); ok {
		node.Depth = getter.Depth()
	}

	if pd, ok := obj.ParentData().(*layout.BoxParentData); ok {
		node.Offset = SafeOffset{X: SafeFloat(pd.Offset.X), Y: SafeFloat(pd.Offset.Y)}
	}

	if depth < maxTreeDepth {
		if cv, ok := obj.(layout.ChildVisitor); ok {
			cv.VisitChildren(func(child layout.RenderObject) {
				node.Children = append(node.Children, serializeRenderTree(child, depth+1))
			})
		}
	}

	return node
}

func getNeedsLayout(obj layout.RenderObject) bool {
	if getter, ok := obj.(interface{ NeedsLayout() bool }); ok {
		return getter.NeedsLayout()
	}
	return false
}

func getNeedsPaint(obj layout.RenderObject) bool {
	if getter, ok := obj.(interface{ NeedsPaint() bool }); ok {
		return getter.NeedsPaint()
	}
	return false
}

// GlobalKeyEntry is a JSON-serializable snapshot of one outstanding
// GlobalKey registration.
type GlobalKeyEntry struct {
	Label string `json:"label"`
}

// SnapshotGlobalKeys reports every GlobalKey currently registered in
// registry, in the stable order Registry.Snapshot already provides.
func SnapshotGlobalKeys(registry *keys.Registry) []GlobalKeyEntry {
	snapshot := registry.Snapshot()
	entries := make([]GlobalKeyEntry, len(snapshot))
	for i, key := range snapshot {
		entries[i] = GlobalKeyEntry{Label: key.String()}
	}
	return entries
}
