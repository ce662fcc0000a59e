package core

import (
	"database/sql"
	"io/fs"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/putto11262002/websession/migrations"
)

type SQLiteDBOption struct {
	// mode can be ro | rw | rwc | memory
	Mode string
	// cache can be shared | private
	Cache string
	// JournalMode be DELETE | TRUNCATE | PERSIST | MEMORY | WAL | OFF
	JournalMode string
	// MaxOpenConns limits the pool size. Zero leaves the driver default.
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func (config *SQLiteDBOption) DSN(sb *strings.Builder) {
	if config == nil {
		return
	}

	params := make([]string, 0, 3)
	if config.Mode != "" {
		params = append(params, "mode="+config.Mode)
	}
	if config.Cache != "" {
		params = append(params, "cache="+config.Cache)
	}
	if config.JournalMode != "" {
		params = append(params, "_journal_mode="+config.JournalMode)
	}
	if len(params) == 0 {
		return
	}

	sb.WriteByte('?')
	sb.WriteString(strings.Join(params, "&"))
}

type SQLiteDB struct {
	*sql.DB
	config     *SQLiteDBOption
	file       string
	migrations fs.FS
}

// NewSQLiteDB opens the database at file. The embedded migrations are used
// unless migrationDir is set.
func NewSQLiteDB(file, migrationDir string, config *SQLiteDBOption) (*SQLiteDB, error) {
	db := &SQLiteDB{config: config, file: file, migrations: migrations.FS}
	if migrationDir != "" {
		db.migrations = os.DirFS(migrationDir)
	}

	var dsn strings.Builder
	dsn.WriteString("file:")
	dsn.WriteString(db.file)
	config.DSN(&dsn)

	d, err := sql.Open("sqlite3", dsn.String())
	if err != nil {
		return nil, err
	}

	if config != nil {
		if config.MaxOpenConns > 0 {
			d.SetMaxOpenConns(config.MaxOpenConns)
		}
		if config.ConnMaxLifetime > 0 {
			d.SetConnMaxLifetime(config.ConnMaxLifetime)
		}
	}

	db.DB = d
	return db, nil
}

func (db *SQLiteDB) Migrate() error {
	goose.SetBaseFS(db.migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	if err := goose.Up(db.DB, "."); err != nil {
		return err
	}
	return nil
}
