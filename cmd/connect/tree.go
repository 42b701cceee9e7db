package connect

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dbgtable/inspect/pkg/transport"
	"github.com/dbgtable/inspect/pkg/value"
	"github.com/dbgtable/inspect/pkg/walker"
)

// nodeRef is attached to each tview.TreeNode's reference so navigation
// callbacks know which Cursor it stands for and whether it has already
// been expanded, mirroring the original tool's RtNode.children /
// RtNode.expand split between "not yet looked at" and "looked at,
// empty".
type nodeRef struct {
	cursor   walker.Cursor
	expanded bool
}

// runTree opens the interactive browser: one root per top-level
// variable in the table, expanded on demand as the operator navigates
// into structs and arrays.
//
// Grounded on the original tool's gui.py Gui/RtNode (cursor
// movement, lazy expand/collapse, inline edit), recast from a curses
// main loop onto tview's declarative TreeView + input-capture model.
func runTree(client *transport.Client, table *walker.Table) error {
	root := tview.NewTreeNode(walker.DefaultSymbol + " debug table").
		SetColor(tcell.ColorYellow)

	vars := table.Root.Variables()
	for _, v := range vars {
		if v.Tag != value.Variable {
			continue
		}
		cur := walker.Cursor{Value: v, Addr: table.Base + v.Value}
		child := leafNode(client, v.Name, cur)
		root.AddChild(child)
	}

	tv := tview.NewTreeView().
		SetRoot(root).
		SetCurrentNode(root)

	tv.SetSelectedFunc(func(n *tview.TreeNode) {
		ref, ok := n.GetReference().(*nodeRef)
		if !ok || ref.expanded {
			return
		}
		expand(client, n, ref)
	})

	app := tview.NewApplication()
	tv.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q':
			app.Stop()
			return nil
		case 'w':
			promptWrite(app, tv, client)
			return nil
		}
		return event
	})

	return app.SetRoot(tv, true).SetFocus(tv).Run()
}

// leafNode builds a node for cursor, rendering its current value into
// the label when possible so the tree shows data without requiring an
// expand.
func leafNode(client *transport.Client, name string, cur walker.Cursor) *tview.TreeNode {
	label := name
	if text, err := cur.Render(client); err == nil {
		label = fmt.Sprintf("%s = %s", name, text)
	} else {
		label = fmt.Sprintf("%s (%s)", name, cur.Value.Pretty())
	}

	n := tview.NewTreeNode(label).
		SetReference(&nodeRef{cursor: cur}).
		SetSelectable(true)

	if hasChildren(cur.Value) {
		n.SetColor(tcell.ColorGreen)
	}
	return n
}

// hasChildren reports whether following v through Variable, Typedef and
// Pointer links (purely via static type info, no transport reads)
// reaches a Struct or Array, the two tags the tree can descend into.
func hasChildren(v *value.Value) bool {
	for {
		switch v.Tag {
		case value.Variable, value.Typedef, value.Pointer:
			t := v.Type()
			if t == nil {
				return false
			}
			v = t
		case value.Struct, value.Array:
			return true
		default:
			return false
		}
	}
}

// expand populates n's children from its cursor's members or elements,
// issuing the transport reads lazily, only on first expansion.
func expand(client *transport.Client, n *tview.TreeNode, ref *nodeRef) {
	children, err := ref.cursor.Children(client)
	if err != nil {
		n.AddChild(tview.NewTreeNode(fmt.Sprintf("<error: %v>", err)).SetColor(tcell.ColorRed))
		ref.expanded = true
		return
	}

	for i, c := range children {
		name := c.Value.Name
		if name == "" {
			name = fmt.Sprintf("[%d]", i)
		}
		n.AddChild(leafNode(client, name, c))
	}
	ref.expanded = true
}

// promptWrite opens a one-line input form over the currently selected
// node and writes the entered literal through its cursor on submit.
func promptWrite(app *tview.Application, tv *tview.TreeView, client *transport.Client) {
	n := tv.GetCurrentNode()
	if n == nil {
		return
	}
	ref, ok := n.GetReference().(*nodeRef)
	if !ok {
		return
	}

	form := tview.NewForm()
	form.AddInputField("value", "", 32, nil, nil)
	form.AddButton("write", func() {
		literal := form.GetFormItem(0).(*tview.InputField).GetText()
		app.SetRoot(tv, true)
		if err := ref.cursor.Write(client, literal); err != nil {
			n.SetText(fmt.Sprintf("%s (write failed: %v)", n.GetText(), err))
			return
		}
		if text, err := ref.cursor.Render(client); err == nil {
			n.SetText(text)
		}
	})
	form.AddButton("cancel", func() {
		app.SetRoot(tv, true)
	})
	form.SetBorder(true).SetTitle("write literal")
	app.SetRoot(form, true)
}
