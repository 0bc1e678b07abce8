package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Tile is one clipped rectangle of a 2-D output domain. Bounds are
// half-open: rows [Row0, Row1), columns [Col0, Col1).
type Tile struct {
	Row0, Row1 int
	Col0, Col1 int
}

// Rows returns the number of rows covered by the tile.
func (t Tile) Rows() int { return t.Row1 - t.Row0 }

// Cols returns the number of columns covered by the tile.
func (t Tile) Cols() int { return t.Col1 - t.Col0 }

// Tiles runs fn over the rows×cols domain partitioned into tileRows×tileCols
// blocks, at most limit tiles at a time. Tiles at the domain boundary are
// clipped so fn never sees out-of-range indices. Tiles blocks until every
// tile has completed; its return is the synchronization point after which
// all writes made by fn are visible.
//
// A non-positive tile dimension means the whole extent in that direction;
// a non-positive limit defaults to GOMAXPROCS. An empty domain returns nil
// without invoking fn. The first error from fn or the context cancels the
// remaining tiles.
func Tiles(ctx context.Context, rows, cols, tileRows, tileCols, limit int, fn func(Tile) error) error {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	if tileRows <= 0 {
		tileRows = rows
	}
	if tileCols <= 0 {
		tileCols = cols
	}
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for r0 := 0; r0 < rows; r0 += tileRows {
		for c0 := 0; c0 < cols; c0 += tileCols {
			tile := Tile{
				Row0: r0,
				Row1: min(r0+tileRows, rows),
				Col0: c0,
				Col1: min(c0+tileCols, cols),
			}
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				return fn(tile)
			})
		}
	}

	return g.Wait()
}
