package storage

import (
	"context"
	"database/sql"
	"fmt"

	"clio/internal/domain"
)

var blockTable = table{
	name: "blocks",
	columns: []string{
		"page_id", "type", "content", "sort_order", "created_at",
		"heading_level", "checked", "expanded", "callout_icon", "table_data",
	},
}

func blockValues(b *domain.Block) []any {
	return []any{
		b.PageID, string(b.Type), b.Content, b.Order, b.CreatedAt,
		nullInt(b.HeadingLevel), nullBool(b.Checked), nullBool(b.Expanded),
		nullString(b.CalloutIcon), nullString(b.TableData),
	}
}

func loadBlocks(ctx context.Context, db *DB) ([]domain.Block, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, page_id, type, content, sort_order, created_at,
		        heading_level, checked, expanded, callout_icon, table_data
		 FROM blocks ORDER BY page_id ASC, sort_order ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	defer rows.Close()

	var blocks []domain.Block
	for rows.Next() {
		var (
			b        domain.Block
			typ      string
			heading  sql.NullInt64
			checked  sql.NullBool
			expanded sql.NullBool
			icon     sql.NullString
			table    sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.PageID, &typ, &b.Content, &b.Order, &b.CreatedAt,
			&heading, &checked, &expanded, &icon, &table); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		b.Type = domain.BlockType(typ)
		if heading.Valid {
			v := int(heading.Int64)
			b.HeadingLevel = &v
		}
		if checked.Valid {
			b.Checked = &checked.Bool
		}
		if expanded.Valid {
			b.Expanded = &expanded.Bool
		}
		if icon.Valid {
			b.CalloutIcon = &icon.String
		}
		if table.Valid {
			b.TableData = &table.String
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
