package database

import (
	"database/sql"
)

type PgPortalRepository struct {
	conn *sql.DB
}

func NewPgPortalRepository(dsn string) (*PgPortalRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgPortalRepository{conn: db}, nil
}

func (db *PgPortalRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
