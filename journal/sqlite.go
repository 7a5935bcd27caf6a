package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price INTEGER NOT NULL,
	kind TEXT NOT NULL,
	side TEXT NOT NULL,
	timestamp DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account
	ON transactions(account_id, timestamp);
`

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) Record(tx Transaction) error {
	_, err := j.db.Exec(`
		INSERT INTO transactions
		(id, account_id, symbol, quantity, price, kind, side, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.AccountID, tx.Symbol, tx.Quantity, tx.Price, tx.Kind, tx.Side, tx.Timestamp,
	)
	return err
}

func (j *SQLite) ListByAccount(accountID string) ([]Transaction, error) {
	rows, err := j.db.Query(`
		SELECT id, account_id, symbol, quantity, price, kind, side, timestamp
		FROM transactions
		WHERE account_id = ?
		ORDER BY timestamp DESC, id DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(
			&tx.ID, &tx.AccountID, &tx.Symbol, &tx.Quantity,
			&tx.Price, &tx.Kind, &tx.Side, &tx.Timestamp,
		); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (j *SQLite) Reset() error {
	_, err := j.db.Exec(`DELETE FROM transactions`)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
