package editor

import (
	"github.com/starford/scribe/internal/document"
)

type cellPos struct {
	table    *document.Node
	cell     *document.Node
	row, col int
}

// locateCell finds the table cell holding key.
func locateCell(t *document.Tree, key document.Key) (cellPos, bool) {
	cell := t.Closest(key, func(k document.Kind) bool { return k == document.KindTableCell })
	if cell == nil {
		return cellPos{}, false
	}
	row, _ := t.Parent(cell.Key)
	table, _ := t.Parent(row.Key)
	r, _ := t.IndexOf(row.Key)
	c, _ := t.IndexOf(cell.Key)
	return cellPos{table: table, cell: cell, row: r, col: c}, true
}

func currentCell(ctx Context, cmd string) (cellPos, error) {
	pos, ok := locateCell(ctx.Tree(), anchorKey(ctx.Selection))
	if !ok {
		return cellPos{}, notApplicable(cmd, "selection is not inside a table")
	}
	return pos, nil
}

func emptyCell(header bool) (*document.Node, error) {
	return document.Cell(header, document.MustNew(document.KindParagraph, document.Attrs{}))
}

// mapRows rebuilds table with fn applied to the cells of every row.
func mapRows(table *document.Node, fn func(r int, cells []*document.Node) ([]*document.Node, error)) (*document.Node, error) {
	out := table.Clone()
	for r, row := range table.Children {
		cells, err := fn(r, row.Clone().Children)
		if err != nil {
			return nil, err
		}
		nr := row.Clone()
		nr.Children = cells
		out.Children[r] = nr
	}
	return out, nil
}

// insert-table-row {after: bool, default true}
func insertTableRow(ctx Context) (Result, error) {
	pos, err := currentCell(ctx, CmdInsertTableRow)
	if err != nil {
		return Result{}, err
	}
	width := len(pos.table.Children[pos.row].Children)
	cells := make([]*document.Node, 0, width)
	for range width {
		c, err := emptyCell(false)
		if err != nil {
			return Result{}, err
		}
		cells = append(cells, c)
	}
	row, err := document.New(document.KindTableRow, document.Attrs{}, cells...)
	if err != nil {
		return Result{}, err
	}
	index := pos.row
	if ctx.Payload.Bool("after", true) {
		index++
	}
	t, err := ctx.Tree().Insert(pos.table.Key, index, row)
	if err != nil {
		return Result{}, err
	}
	return Result{Tree: t, Selection: ctx.Selection}, nil
}

// insert-table-column {after: bool, default true}. New cells copy the
// header flag of their neighbour so a header row stays a header row.
func insertTableColumn(ctx Context) (Result, error) {
	pos, err := currentCell(ctx, CmdInsertTableColumn)
	if err != nil {
		return Result{}, err
	}
	index := pos.col
	if ctx.Payload.Bool("after", true) {
		index++
	}
	table, err := mapRows(pos.table, func(_ int, cells []*document.Node) ([]*document.Node, error) {
		header := false
		if pos.col < len(cells) {
			header = cells[pos.col].Attrs.Header
		}
		c, err := emptyCell(header)
		if err != nil {
			return nil, err
		}
		at := min(index, len(cells))
		return append(cells[:at:at], append([]*document.Node{c}, cells[at:]...)...), nil
	})
	if err != nil {
		return Result{}, err
	}
	t, err := ctx.Tree().Replace(pos.table.Key, table)
	if err != nil {
		return Result{}, err
	}
	return Result{Tree: t, Selection: ctx.Selection}, nil
}

// remove-table-row drops the row holding the selection. The last row of a
// table cannot be removed; delete the table instead.
func removeTableRow(ctx Context) (Result, error) {
	pos, err := currentCell(ctx, CmdRemoveTableRow)
	if err != nil {
		return Result{}, err
	}
	if len(pos.table.Children) == 1 {
		return Result{}, notApplicable(CmdRemoveTableRow, "cannot remove the only row")
	}
	t, err := ctx.Tree().Remove(pos.table.Children[pos.row].Key)
	if err != nil {
		return Result{}, err
	}
	table, _ := t.Resolve(pos.table.Key)
	r := min(pos.row, len(table.Children)-1)
	c := min(pos.col, len(table.Children[r].Children)-1)
	return Result{Tree: t, Selection: caretAt(t, table.Children[r].Children[c].Key)}, nil
}

// remove-table-column drops the column holding the selection.
func removeTableColumn(ctx Context) (Result, error) {
	pos, err := currentCell(ctx, CmdRemoveTableColumn)
	if err != nil {
		return Result{}, err
	}
	if len(pos.table.Children[pos.row].Children) == 1 {
		return Result{}, notApplicable(CmdRemoveTableColumn, "cannot remove the only column")
	}
	table, err := mapRows(pos.table, func(_ int, cells []*document.Node) ([]*document.Node, error) {
		if pos.col >= len(cells) {
			return cells, nil
		}
		return append(cells[:pos.col:pos.col], cells[pos.col+1:]...), nil
	})
	if err != nil {
		return Result{}, err
	}
	t, err := ctx.Tree().Replace(pos.table.Key, table)
	if err != nil {
		return Result{}, err
	}
	row := table.Children[pos.row]
	c := min(pos.col, len(row.Children)-1)
	return Result{Tree: t, Selection: keepOr(t, ctx.Selection, row.Children[c].Key)}, nil
}

// set-cell-background {color}. Applies to the rectangle of cells between
// the anchor and focus cells, every cell of a selected table, or the one
// selected cell. An empty color clears the background.
func setCellBackground(ctx Context) (Result, error) {
	color := ctx.Payload.String("color")
	if err := check("color", color, colorRule); err != nil {
		return Result{}, err
	}
	t := ctx.Tree()

	var table *document.Node
	r1, c1, r2, c2 := 0, 0, -1, -1
	if n, ok := selectedNode(ctx, document.KindTable); ok {
		table = n
		r2, c2 = len(n.Children)-1, 1<<30
	} else {
		pos, err := currentCell(ctx, CmdSetCellBackground)
		if err != nil {
			return Result{}, err
		}
		table = pos.table
		r1, c1, r2, c2 = pos.row, pos.col, pos.row, pos.col
		if rs, ok := ctx.Selection.(*document.RangeSelection); ok {
			if end, ok := locateCell(t, rs.Focus.Key); ok && end.table.Key == table.Key {
				r1, r2 = min(r1, end.row), max(r2, end.row)
				c1, c2 = min(c1, end.col), max(c2, end.col)
			}
		}
	}

	next, err := mapRows(table, func(r int, cells []*document.Node) ([]*document.Node, error) {
		if r < r1 || r > r2 {
			return cells, nil
		}
		for c := range cells {
			if c < c1 || c > c2 {
				continue
			}
			cell := cells[c].Clone()
			cell.Attrs.Background = color
			cells[c] = cell
		}
		return cells, nil
	})
	if err != nil {
		return Result{}, err
	}
	if document.Equal(next, table) {
		return Result{Tree: t}, nil
	}
	nt, err := t.Replace(table.Key, next)
	if err != nil {
		return Result{}, err
	}
	return Result{Tree: nt, Selection: ctx.Selection}, nil
}
