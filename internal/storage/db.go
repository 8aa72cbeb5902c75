package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"travel-wallet/internal/models"

	"github.com/shopspring/decimal"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite serializes writers anyway, and ":memory:" databases exist per
	// connection, so a single connection keeps every caller on the same data.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS trips (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			from_country TEXT NOT NULL,
			to_country TEXT NOT NULL,
			from_currency TEXT NOT NULL,
			to_currency TEXT NOT NULL,
			exchange_rate TEXT NOT NULL,
			balance_from TEXT NOT NULL,
			balance_to TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		)`,
		// At most one active trip per user.
		`CREATE UNIQUE INDEX IF NOT EXISTS trips_one_active ON trips(user_id) WHERE is_active = 1`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trip_id INTEGER NOT NULL,
			amount_to TEXT NOT NULL,
			amount_from TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (trip_id) REFERENCES trips(id)
		)`,
		`CREATE INDEX IF NOT EXISTS expenses_trip ON expenses(trip_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// inTx runs fn inside a transaction, committing on success.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CreateUser registers a user. Registering an existing user is a no-op.
func (db *DB) CreateUser(ctx context.Context, id models.UserID, name string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (user_id, name, created_at) VALUES (?, ?, ?)",
		id, name, time.Now().UTC(),
	)
	return err
}

// GetUser retrieves a user by ID.
func (db *DB) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT user_id, name, created_at FROM users WHERE user_id = ?",
		id,
	)

	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

const tripColumns = `id, user_id, name, from_country, to_country, from_currency, to_currency,
	exchange_rate, balance_from, balance_to, is_active, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(row scanner) (*models.Trip, error) {
	var t models.Trip
	err := row.Scan(
		&t.ID, &t.UserID, &t.Name, &t.FromCountry, &t.ToCountry, &t.FromCurrency, &t.ToCurrency,
		&t.ExchangeRate, &t.BalanceFrom, &t.BalanceTo, &t.IsActive, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTrip inserts t as the user's only active trip. Every other trip of the
// user is deactivated in the same transaction.
func (db *DB) CreateTrip(ctx context.Context, t models.Trip) (*models.Trip, error) {
	var id int64
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO users (user_id, name, created_at) VALUES (?, '', ?)",
			t.UserID, now,
		); err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE trips SET is_active = 0 WHERE user_id = ?",
			t.UserID,
		); err != nil {
			return fmt.Errorf("deactivate trips: %w", err)
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO trips (user_id, name, from_country, to_country, from_currency, to_currency,
				exchange_rate, balance_from, balance_to, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
			t.UserID, t.Name, t.FromCountry, t.ToCountry, t.FromCurrency, t.ToCurrency,
			t.ExchangeRate, t.BalanceFrom, t.BalanceTo, now,
		)
		if err != nil {
			return fmt.Errorf("insert trip: %w", err)
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return db.GetTrip(ctx, id)
}

// GetTrip retrieves a single trip by ID.
func (db *DB) GetTrip(ctx context.Context, id int64) (*models.Trip, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+tripColumns+" FROM trips WHERE id = ?", id)
	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTripNotFound
	}
	return t, err
}

// GetActiveTrip retrieves the active trip of a user.
func (db *DB) GetActiveTrip(ctx context.Context, user models.UserID) (*models.Trip, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+tripColumns+" FROM trips WHERE user_id = ? AND is_active = 1 LIMIT 1",
		user,
	)
	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNoActiveTrip
	}
	return t, err
}

// ListTrips retrieves all trips of a user, most recent first.
func (db *DB) ListTrips(ctx context.Context, user models.UserID) ([]models.Trip, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+tripColumns+" FROM trips WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		user,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

// ActivateTrip makes tripID the user's only active trip.
func (db *DB) ActivateTrip(ctx context.Context, user models.UserID, tripID int64) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		var owned int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM trips WHERE id = ? AND user_id = ?",
			tripID, user,
		).Scan(&owned)
		if err != nil {
			return err
		}
		if owned == 0 {
			return models.ErrTripNotFound
		}
		if _, err := tx.ExecContext(ctx, "UPDATE trips SET is_active = 0 WHERE user_id = ?", user); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE trips SET is_active = 1 WHERE id = ? AND user_id = ?", tripID, user)
		return err
	})
}

// AddExpense appends an expense and deducts it from both trip balances.
func (db *DB) AddExpense(ctx context.Context, tripID int64, amountTo, amountFrom decimal.Decimal, description string) (*models.Expense, error) {
	var e models.Expense
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		var balanceTo, balanceFrom decimal.Decimal
		err := tx.QueryRowContext(ctx,
			"SELECT balance_to, balance_from FROM trips WHERE id = ?",
			tripID,
		).Scan(&balanceTo, &balanceFrom)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrTripNotFound
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		result, err := tx.ExecContext(ctx,
			"INSERT INTO expenses (trip_id, amount_to, amount_from, description, created_at) VALUES (?, ?, ?, ?, ?)",
			tripID, amountTo, amountFrom, description, now,
		)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE trips SET balance_to = ?, balance_from = ? WHERE id = ?",
			balanceTo.Sub(amountTo), balanceFrom.Sub(amountFrom), tripID,
		); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		e = models.Expense{
			ID:          id,
			TripID:      tripID,
			AmountTo:    amountTo,
			AmountFrom:  amountFrom,
			Description: description,
			CreatedAt:   now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateExpenseDescription sets the description of an expense, replacing any
// previous one.
func (db *DB) UpdateExpenseDescription(ctx context.Context, id int64, description string) error {
	result, err := db.conn.ExecContext(ctx, "UPDATE expenses SET description = ? WHERE id = ?", description, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrExpenseNotFound
	}
	return nil
}

// UpdateTripRate stores a new exchange rate and recomputes balance_from from
// balance_to.
func (db *DB) UpdateTripRate(ctx context.Context, tripID int64, rate decimal.Decimal) (*models.Trip, error) {
	var updated models.Trip
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		t, err := scanTrip(tx.QueryRowContext(ctx, "SELECT "+tripColumns+" FROM trips WHERE id = ?", tripID))
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrTripNotFound
		}
		if err != nil {
			return err
		}

		updated = t.Rebalanced(rate)
		_, err = tx.ExecContext(ctx,
			"UPDATE trips SET exchange_rate = ?, balance_from = ? WHERE id = ?",
			updated.ExchangeRate, updated.BalanceFrom, tripID,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListExpenses retrieves the most recent expenses of a trip, newest first.
func (db *DB) ListExpenses(ctx context.Context, tripID int64, limit int) ([]models.Expense, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, trip_id, amount_to, amount_from, description, created_at
		FROM expenses
		WHERE trip_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		tripID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.TripID, &e.AmountTo, &e.AmountFrom, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// TripSummary totals every expense recorded against a trip.
func (db *DB) TripSummary(ctx context.Context, tripID int64) (models.TripSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT amount_to, amount_from FROM expenses WHERE trip_id = ?",
		tripID,
	)
	if err != nil {
		return models.TripSummary{}, err
	}
	defer rows.Close()

	summary := models.TripSummary{TotalTo: decimal.Zero, TotalFrom: decimal.Zero}
	for rows.Next() {
		var amountTo, amountFrom decimal.Decimal
		if err := rows.Scan(&amountTo, &amountFrom); err != nil {
			return models.TripSummary{}, err
		}
		summary.Count++
		summary.TotalTo = summary.TotalTo.Add(amountTo)
		summary.TotalFrom = summary.TotalFrom.Add(amountFrom)
	}
	return summary, rows.Err()
}
