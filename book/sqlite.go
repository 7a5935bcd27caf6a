package book

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS limit_orders (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	limit_price INTEGER NOT NULL,
	side TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_limit_orders_account
	ON limit_orders(account_id, created_at);
`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(o Order) error {
	_, err := s.db.Exec(`
		INSERT INTO limit_orders
		(id, account_id, symbol, quantity, limit_price, side, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.AccountID, o.Symbol, o.Quantity, o.LimitPrice, o.Side, o.CreatedAt,
	)
	return err
}

func (s *SQLiteStore) Get(id string) (Order, error) {
	var o Order
	row := s.db.QueryRow(`
		SELECT id, account_id, symbol, quantity, limit_price, side, created_at
		FROM limit_orders WHERE id = ?`, id)

	err := row.Scan(&o.ID, &o.AccountID, &o.Symbol, &o.Quantity, &o.LimitPrice, &o.Side, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return Order{}, fmt.Errorf("get order %q: %w", id, ErrOrderNotFound)
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM limit_orders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete order %q: %w", id, ErrOrderNotFound)
	}
	return nil
}

func (s *SQLiteStore) List() ([]Order, error) {
	return s.query(`
		SELECT id, account_id, symbol, quantity, limit_price, side, created_at
		FROM limit_orders`)
}

func (s *SQLiteStore) ListByAccount(accountID string) ([]Order, error) {
	return s.query(`
		SELECT id, account_id, symbol, quantity, limit_price, side, created_at
		FROM limit_orders
		WHERE account_id = ?
		ORDER BY created_at DESC, id DESC`, accountID)
}

func (s *SQLiteStore) query(q string, args ...any) ([]Order, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.AccountID, &o.Symbol, &o.Quantity,
			&o.LimitPrice, &o.Side, &o.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Reset() error {
	_, err := s.db.Exec(`DELETE FROM limit_orders`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
