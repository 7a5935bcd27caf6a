package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/stocksim/market"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	balance INTEGER NOT NULL,
	realized_profit INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	avg_cost INTEGER NOT NULL,
	PRIMARY KEY (account_id, symbol)
);
`

// SQLiteStore persists accounts and holdings. Monetary columns are
// integer cents.
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

func (s *SQLiteStore) GetAccount(id string) (Account, error) {
	var a Account
	row := s.db.QueryRow(`
		SELECT id, username, balance, realized_profit, created_at
		FROM accounts WHERE id = ?`, id)

	err := row.Scan(&a.ID, &a.Username, &a.Balance, &a.RealizedProfit, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return Account{}, fmt.Errorf("account %q: %w", id, ErrAccountNotFound)
	}
	if err != nil {
		return Account{}, mapErr(err)
	}
	return a, nil
}

func (s *SQLiteStore) SaveAccount(a Account) error {
	_, err := s.db.Exec(`
		INSERT INTO accounts (id, username, balance, realized_profit, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			balance = excluded.balance,
			realized_profit = excluded.realized_profit`,
		a.ID, a.Username, a.Balance, a.RealizedProfit, a.CreatedAt,
	)
	return mapErr(err)
}

func (s *SQLiteStore) ListAccounts() ([]Account, error) {
	rows, err := s.db.Query(`
		SELECT id, username, balance, realized_profit, created_at
		FROM accounts ORDER BY id ASC`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Balance, &a.RealizedProfit, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetHolding(accountID, symbol string) (Holding, bool, error) {
	var h Holding
	row := s.db.QueryRow(`
		SELECT account_id, symbol, quantity, avg_cost
		FROM holdings WHERE account_id = ? AND symbol = ?`, accountID, symbol)

	err := row.Scan(&h.AccountID, &h.Symbol, &h.Quantity, &h.AvgCost)
	if err == sql.ErrNoRows {
		return Holding{}, false, nil
	}
	if err != nil {
		return Holding{}, false, mapErr(err)
	}
	return h, true, nil
}

func (s *SQLiteStore) SaveHolding(h Holding) error {
	_, err := s.db.Exec(`
		INSERT INTO holdings (account_id, symbol, quantity, avg_cost)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id, symbol) DO UPDATE SET
			quantity = excluded.quantity,
			avg_cost = excluded.avg_cost`,
		h.AccountID, h.Symbol, h.Quantity, h.AvgCost,
	)
	return mapErr(err)
}

func (s *SQLiteStore) DeleteHolding(accountID, symbol string) error {
	_, err := s.db.Exec(`
		DELETE FROM holdings WHERE account_id = ? AND symbol = ?`,
		accountID, symbol)
	return mapErr(err)
}

func (s *SQLiteStore) ListHoldings(accountID string) ([]Holding, error) {
	rows, err := s.db.Query(`
		SELECT account_id, symbol, quantity, avg_cost
		FROM holdings WHERE account_id = ? ORDER BY symbol ASC`, accountID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []Holding
	for rows.Next() {
		var h Holding
		if err := rows.Scan(&h.AccountID, &h.Symbol, &h.Quantity, &h.AvgCost); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Reset(startingBalance market.Cents) error {
	tx, err := s.db.Begin()
	if err != nil {
		return mapErr(err)
	}
	if _, err := tx.Exec(`DELETE FROM holdings`); err != nil {
		tx.Rollback()
		return mapErr(err)
	}
	if _, err := tx.Exec(`UPDATE accounts SET balance = ?, realized_profit = 0`, startingBalance); err != nil {
		tx.Rollback()
		return mapErr(err)
	}
	return mapErr(tx.Commit())
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// mapErr surfaces lock contention as ErrConflict so callers can retry.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%v: %w", err, ErrConflict)
	}
	return err
}
