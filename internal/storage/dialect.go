package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// dialect captures the few places where SQLite, Postgres and MySQL disagree:
// placeholder syntax, column types and index DDL.
type dialect struct {
	name       string
	driverName string

	idType   string
	textType string // short text: names, titles
	longType string // unbounded text: block content, table payloads
	timeType string
	intType  string
	boolType string

	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
	// CREATE INDEX IF NOT EXISTS is unsupported; duplicates are ignored instead
	noIndexIfNotExists bool
}

var dialects = map[string]dialect{
	"sqlite": {
		name: "sqlite", driverName: "sqlite",
		idType: "TEXT", textType: "TEXT", longType: "TEXT",
		timeType: "DATETIME", intType: "INTEGER", boolType: "INTEGER",
	},
	"postgres": {
		name: "postgres", driverName: "postgres",
		idType: "VARCHAR(64)", textType: "TEXT", longType: "TEXT",
		timeType: "TIMESTAMPTZ", intType: "INTEGER", boolType: "BOOLEAN",
		numbered: true,
	},
	"mysql": {
		name: "mysql", driverName: "mysql",
		idType: "VARCHAR(64)", textType: "VARCHAR(1024)", longType: "LONGTEXT",
		timeType: "DATETIME(6)", intType: "INT", boolType: "BOOLEAN",
		noIndexIfNotExists: true,
	},
}

func dialectFor(name string) (dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver: %s", name)
	}
	return d, nil
}

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (d dialect) createIndex(name, table, column string) string {
	if d.noIndexIfNotExists {
		return fmt.Sprintf(`CREATE INDEX %s ON %s(%s)`, name, table, column)
	}
	return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s(%s)`, name, table, column)
}

// isDuplicateIndex reports the MySQL "Duplicate key name" error (1061).
func (d dialect) isDuplicateIndex(err error) bool {
	return d.noIndexIfNotExists && strings.Contains(err.Error(), "Duplicate key name")
}

// expand fills the {id}/{text}/{long}/{time}/{int}/{bool} type slots.
func (d dialect) expand(ddl string) string {
	return strings.NewReplacer(
		"{id}", d.idType,
		"{text}", d.textType,
		"{long}", d.longType,
		"{time}", d.timeType,
		"{int}", d.intType,
		"{bool}", d.boolType,
	).Replace(ddl)
}

// mysqlDSN turns on parseTime so DATETIME columns scan into time.Time, and
// clientFoundRows so an UPDATE writing unchanged values still reports its
// row as affected.
func mysqlDSN(dsn string) (string, error) {
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	c.ParseTime = true
	c.ClientFoundRows = true
	return c.FormatDSN(), nil
}
