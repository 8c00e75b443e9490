package rows

// tree owns every row built during a walk. Frames refer to rows by index,
// and repeat collections are index lists keyed by output key.
type tree struct {
	nodes []node
}

type node struct {
	row         *Row
	collections map[string][]int
}

func (t *tree) add(row *Row) int {
	t.nodes = append(t.nodes, node{row: row})
	return len(t.nodes) - 1
}

func (t *tree) row(i int) *Row {
	return t.nodes[i].row
}

// count returns the number of rows already in parent's collection at key.
func (t *tree) count(parent int, key string) int {
	return len(t.nodes[parent].collections[key])
}

// attach appends row to parent's collection at key and returns its index.
func (t *tree) attach(parent int, key string, row *Row) int {
	idx := t.add(row)
	p := &t.nodes[parent]
	if p.collections == nil {
		p.collections = make(map[string][]int)
	}
	p.collections[key] = append(p.collections[key], idx)
	return idx
}
