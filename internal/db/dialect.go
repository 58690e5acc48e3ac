package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures what differs between the supported engines.
type Dialect struct {
	Name       string
	DriverName string
	// CustomersDDL creates the customers table if it is absent.
	CustomersDDL string
	numbered     bool
}

var (
	SQLite = Dialect{
		Name:         "sqlite",
		DriverName:   "sqlite",
		CustomersDDL: `CREATE TABLE IF NOT EXISTS customers (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`,
	}
	Postgres = Dialect{
		Name:         "postgres",
		DriverName:   "postgres",
		CustomersDDL: `CREATE TABLE IF NOT EXISTS customers (id SERIAL PRIMARY KEY, name TEXT)`,
		numbered:     true,
	}
)

// DialectFor maps a configured driver name to its dialect. Empty means sqlite.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
}

// Rebind rewrites ? placeholders into $1..$n for engines that need it.
// Question marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
