// Package sqlite registers the application's sqlite driver with the
// connection pragmas every pool member needs.
package sqlite

import (
	"database/sql"
	"database/sql/driver"

	"github.com/mattn/go-sqlite3"
)

const DriverName = "sqlite3_quill"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			pragmas := []string{
				"PRAGMA foreign_keys = ON",
				"PRAGMA journal_mode = WAL",
				"PRAGMA busy_timeout = 5000",
			}
			for _, p := range pragmas {
				if _, err := conn.Exec(p, []driver.Value{}); err != nil {
					return err
				}
			}
			return nil
		},
	})
}
