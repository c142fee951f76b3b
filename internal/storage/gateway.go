package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"clio/internal/domain"
)

// table describes how one entity kind maps onto its SQL table. The id
// column is implicit and always first.
type table struct {
	name    string
	columns []string
}

func (t table) insertSQL() string {
	cols := append([]string{"id"}, t.columns...)
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, t.name, strings.Join(cols, ", "), marks)
}

func (t table) updateSQL() string {
	sets := make([]string, len(t.columns))
	for i, c := range t.columns {
		sets[i] = c + " = ?"
	}
	return fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, t.name, strings.Join(sets, ", "))
}

func (t table) deleteSQL() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t.name)
}

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
)

// pendingOp is a row change captured when it was recorded, so later
// in-memory edits do not leak into an earlier write.
type pendingOp struct {
	kind   opKind
	table  table
	id     string
	values []any
}

// SQLGateway buffers entity changes and writes them to a DB in one
// transaction per Commit.
type SQLGateway struct {
	db *DB

	mu      sync.Mutex
	pending []pendingOp
}

// NewSQLGateway returns a gateway writing through db.
func NewSQLGateway(db *DB) *SQLGateway {
	return &SQLGateway{db: db}
}

var _ domain.Gateway = (*SQLGateway)(nil)

func (g *SQLGateway) Insert(e domain.Entity) { g.record(opInsert, e) }

func (g *SQLGateway) Update(e domain.Entity) { g.record(opUpdate, e) }

func (g *SQLGateway) Delete(e domain.Entity) { g.record(opDelete, e) }

func (g *SQLGateway) record(kind opKind, e domain.Entity) {
	t, values := rowFor(e)
	g.mu.Lock()
	g.pending = append(g.pending, pendingOp{kind: kind, table: t, id: e.EntityID(), values: values})
	g.mu.Unlock()
}

// Pending returns the number of recorded, uncommitted changes.
func (g *SQLGateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Commit applies every pending change in order inside one transaction. The
// pending set is cleared whether or not the transaction succeeds.
func (g *SQLGateway) Commit(ctx context.Context) error {
	g.mu.Lock()
	ops := g.pending
	g.pending = nil
	g.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	tx, err := g.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	d := g.db.dialect
	for _, op := range ops {
		switch op.kind {
		case opInsert:
			args := append([]any{op.id}, op.values...)
			if _, err := tx.ExecContext(ctx, d.rebind(op.table.insertSQL()), args...); err != nil {
				return fmt.Errorf("insert %s %s: %w", op.table.name, op.id, err)
			}
		case opUpdate:
			args := append(append([]any{}, op.values...), op.id)
			res, err := tx.ExecContext(ctx, d.rebind(op.table.updateSQL()), args...)
			if err != nil {
				return fmt.Errorf("update %s %s: %w", op.table.name, op.id, err)
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				continue
			}
			// Row missing (e.g. written by an older commit that failed); upsert.
			ins := append([]any{op.id}, op.values...)
			if _, err := tx.ExecContext(ctx, d.rebind(op.table.insertSQL()), ins...); err != nil {
				return fmt.Errorf("upsert %s %s: %w", op.table.name, op.id, err)
			}
		case opDelete:
			if _, err := tx.ExecContext(ctx, d.rebind(op.table.deleteSQL()), op.id); err != nil {
				return fmt.Errorf("delete %s %s: %w", op.table.name, op.id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Load reads every workspace, folder, page and block.
func (g *SQLGateway) Load(ctx context.Context) (*domain.Snapshot, error) {
	var (
		snap domain.Snapshot
		err  error
	)
	if snap.Workspaces, err = loadWorkspaces(ctx, g.db); err != nil {
		return nil, err
	}
	if snap.Folders, err = loadFolders(ctx, g.db); err != nil {
		return nil, err
	}
	if snap.Pages, err = loadPages(ctx, g.db); err != nil {
		return nil, err
	}
	if snap.Blocks, err = loadBlocks(ctx, g.db); err != nil {
		return nil, err
	}
	return &snap, nil
}

func rowFor(e domain.Entity) (table, []any) {
	switch v := e.(type) {
	case *domain.Workspace:
		return workspaceTable, workspaceValues(v)
	case *domain.Folder:
		return folderTable, folderValues(v)
	case *domain.Page:
		return pageTable, pageValues(v)
	case *domain.Block:
		return blockTable, blockValues(v)
	default:
		panic(fmt.Sprintf("storage: unsupported entity %T", e))
	}
}
