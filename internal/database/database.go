package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB stores the record collections in SQLite, one table per collection.
type DB struct {
	db     *sql.DB
	path   string
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	// Создаем директорию для БД, если её нет
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Одно соединение: SQLite пишет последовательно, а :memory: живёт в рамках соединения
	db.SetMaxOpenConns(1)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Создаем таблицы
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return &DB{db: db, path: path, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS cars (
            id INTEGER PRIMARY KEY,
            make TEXT NOT NULL,
            model TEXT NOT NULL,
            year INTEGER NOT NULL,
            price REAL NOT NULL,
            installment BOOLEAN NOT NULL DEFAULT 0,
            showroom_id INTEGER NOT NULL,
            available BOOLEAN NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS customers (
            id INTEGER PRIMARY KEY,
            username TEXT NOT NULL,
            password TEXT NOT NULL,
            phone TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS showrooms (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            location TEXT,
            phone TEXT,
            car_ids TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS garages (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            location TEXT,
            phone TEXT,
            service_ids TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS services (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            price REAL NOT NULL
        )`,
		// История хранится в порядке добавления, порядок задаёт position
		`CREATE TABLE IF NOT EXISTS buy_rent_process (
            position INTEGER PRIMARY KEY,
            process_id INTEGER NOT NULL,
            customer_id INTEGER NOT NULL,
            date TEXT NOT NULL,
            amount REAL NOT NULL,
            car_id INTEGER NOT NULL,
            type TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS service_process (
            position INTEGER PRIMARY KEY,
            process_id INTEGER NOT NULL,
            customer_id INTEGER NOT NULL,
            date TEXT NOT NULL,
            amount REAL NOT NULL,
            service_id INTEGER NOT NULL,
            garage_id INTEGER NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS reservations (
            reservation_id INTEGER PRIMARY KEY,
            customer_id INTEGER NOT NULL,
            car_id INTEGER NOT NULL,
            start_time TEXT NOT NULL,
            expiry_time TEXT NOT NULL
        )`,
		// Очередь заявок: position 1 это голова очереди
		`CREATE TABLE IF NOT EXISTS service_requests (
            position INTEGER PRIMARY KEY,
            request_id INTEGER NOT NULL,
            customer_id INTEGER NOT NULL,
            service_id INTEGER NOT NULL,
            garage_id INTEGER NOT NULL,
            timestamp TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending'
        )`,
		// Журнал действий: position 1 это дно стека
		`CREATE TABLE IF NOT EXISTS admin_actions (
            position INTEGER PRIMARY KEY,
            action_id INTEGER NOT NULL,
            admin_id INTEGER NOT NULL,
            action_type TEXT NOT NULL,
            entity_type TEXT NOT NULL,
            entity_id INTEGER NOT NULL,
            timestamp TEXT NOT NULL,
            details TEXT
        )`,

		`CREATE INDEX IF NOT EXISTS idx_cars_showroom_id ON cars(showroom_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_expiry ON reservations(expiry_time)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_username ON customers(username COLLATE NOCASE)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Path() string {
	return db.path
}

func (db *DB) PingContext(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.db.Close()
}
