package rows

import (
	"strconv"
	"strings"

	"github.com/dbsmedya/formrows/internal/schema"
)

// Options controls value rendering.
type Options struct {
	// WKT renders geopoints as "POINT (lon lat)" strings instead of Point values.
	WKT bool

	// OnCoercionFailure, when set, is called for every value that could not be
	// converted to its field's kind. The key is left out of the row.
	OnCoercionFailure func(key string, kind schema.Kind, text string)
}

// Walker builds the rows of one table from the events of one document.
// Feed it with Open, Text and Close in document order; Close reports true
// once the envelope element has closed, after which Rows returns the result
// and further events are ignored.
type Walker struct {
	table string
	opts  Options

	stack   stack
	tree    tree
	result  []int
	started bool
	done    bool
}

// NewWalker prepares a walk of one submission. root is the schema root, whose
// name is the root table name; table is the dot path of the table to build.
func NewWalker(root *schema.Field, table, instanceID string, opts Options) *Walker {
	w := &Walker{table: table, opts: opts}

	rootNode := w.tree.add(NewRow(instanceID))
	w.stack.push(frame{
		field:     root,
		path:      root.Name,
		data:      rootNode,
		iteration: instanceID,
		live:      true,
	})

	// The root table has no repeat element to start its single row.
	if table == root.Name {
		w.result = append(w.result, rootNode)
	}
	return w
}

// LocalName strips a namespace prefix from a tag name.
func LocalName(tag string) string {
	if i := strings.LastIndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

// Open handles a start tag. The first one is the envelope and is skipped.
func (w *Walker) Open(tag string) {
	if w.done {
		return
	}
	if !w.started {
		w.started = true
		return
	}

	top := w.stack.top()
	field := top.field.Child(LocalName(tag))
	if field == nil {
		w.stack.push(frame{data: noData})
		return
	}

	switch field.Kind {
	case schema.Structure:
		w.stack.push(frame{
			field:     field,
			path:      top.path + "." + field.Name,
			data:      top.data,
			namespace: outputKey(top.namespace, field.Name),
		})
	case schema.Repeat:
		w.openRepeat(top, field)
	default:
		w.stack.push(frame{
			field:     field,
			path:      top.path + "." + field.Name,
			data:      top.data,
			iteration: top.iteration,
			live:      top.live,
			namespace: top.namespace,
		})
	}
}

func (w *Walker) openRepeat(top frame, field *schema.Field) {
	key := outputKey(top.namespace, field.Name)
	path := top.path + "." + field.Name
	ancestry := w.stack.ancestry()

	link := NavigationLink(append(ancestry[:len(ancestry):len(ancestry)], Step{Field: field}))
	w.tree.row(top.data).Set(key+NavigationLinkSuffix, link)

	branch := Locate(path, w.table)
	if branch == Inside {
		// Nested collection of a row being built: only the link is kept.
		w.stack.push(frame{data: noData})
		return
	}

	iteration := strconv.Itoa(w.tree.count(top.data, key))
	ancestry = append(ancestry, Step{Field: field, Iteration: iteration, Live: true})

	row := NewRow(HashID(ancestry))
	if branch == At {
		parentKey, parentID := parentReference(ancestry)
		row.Set(parentKey, parentID)
	}

	idx := w.tree.attach(top.data, key, row)
	if branch == At {
		w.result = append(w.result, idx)
	}

	w.stack.push(frame{
		field:     field,
		path:      path,
		data:      idx,
		iteration: iteration,
		live:      true,
	})
}

// parentReference finds the nearest repeat above the last step and returns
// the key and value linking a row to it. Top-level repeats link to the
// submission itself.
func parentReference(ancestry []Step) (key, id string) {
	for j := len(ancestry) - 2; j > 0; j-- {
		if ancestry[j].Field.Kind != schema.Repeat {
			continue
		}
		names := make([]string, j+1)
		for i := range names {
			names[i] = ancestry[i].Field.Name
		}
		return "__" + strings.Join(names, "-") + "-id", HashID(ancestry[:j+1])
	}
	root := ancestry[0]
	return "__" + root.Field.Name + "-id", root.Iteration
}

// Text handles character data. Only scalar fields inside a row of the table
// are written; a repeated write to the same key replaces the earlier value.
func (w *Walker) Text(text string) {
	if w.done || !w.started {
		return
	}

	top := w.stack.top()
	if top.field == nil || top.field.Kind.IsContainer() {
		return
	}
	if Locate(top.path, w.table) != Inside {
		return
	}

	key := outputKey(top.namespace, top.field.Name)
	value, ok := coerce(top.field.Kind, text, w.opts.WKT)
	if !ok {
		if w.opts.OnCoercionFailure != nil {
			w.opts.OnCoercionFailure(key, top.field.Kind, text)
		}
		return
	}
	w.tree.row(top.data).Set(key, value)
}

// Close handles an end tag and reports whether the document is complete.
func (w *Walker) Close() bool {
	if w.done {
		return true
	}
	if !w.started {
		panic("rows: close before any open")
	}

	w.stack.pop()
	if w.stack.depth() == 0 {
		w.done = true
	}
	return w.done
}

// Depth returns the current traversal depth, counting the root frame.
func (w *Walker) Depth() int {
	return w.stack.depth()
}

// Rows returns the table's rows in document order once the walk is done.
func (w *Walker) Rows() ([]*Row, bool) {
	if !w.done {
		return nil, false
	}
	out := make([]*Row, len(w.result))
	for i, idx := range w.result {
		out[i] = w.tree.row(idx)
	}
	return out, true
}

func outputKey(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "__" + name
}
