package storage

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

type Dialect struct {
	Driver string
	create string
	get    string
	upsert string
}

var (
	MySQL = Dialect{
		Driver: "mysql",
		create: "create table if not exists console_storage (storage_key varchar(191) primary key, storage_value text not null)",
		get:    "select storage_value from console_storage where storage_key = ?",
		upsert: "insert into console_storage (storage_key, storage_value) values (?, ?) on duplicate key update storage_value = values(storage_value)",
	}
	Postgres = Dialect{
		Driver: "pgx",
		create: "create table if not exists console_storage (storage_key varchar(191) primary key, storage_value text not null)",
		get:    "select storage_value from console_storage where storage_key = $1",
		upsert: "insert into console_storage (storage_key, storage_value) values ($1, $2) on conflict (storage_key) do update set storage_value = excluded.storage_value",
	}
)

type DB struct {
	*sql.DB
	dialect Dialect
}

func DBConn(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.WithStack(err)
	}

	return NewDB(ctx, db, dialect)
}

// NewDB wraps an open handle and makes sure the storage table exists.
func NewDB(ctx context.Context, db *sql.DB, dialect Dialect) (*DB, error) {
	if _, err := db.ExecContext(ctx, dialect.create); err != nil {
		return nil, errors.WithStack(err)
	}
	return &DB{DB: db, dialect: dialect}, nil
}

func (db *DB) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := db.QueryRowContext(ctx, db.dialect.get, key).Scan(&val)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", errors.WithStack(err)
	}
	return val, nil
}

func (db *DB) Set(ctx context.Context, key, value string) error {
	if _, err := db.ExecContext(ctx, db.dialect.upsert, key, value); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
