package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rustyeddy/stocksim/market"
)

var csvHeader = []string{"id", "account_id", "symbol", "quantity", "price", "kind", "side", "timestamp"}

// CSV appends executed trades to a flat file. Handy for importing a
// session into a spreadsheet; queries re-read the file.
type CSV struct {
	mu   sync.Mutex
	path string
	w    *csv.Writer
	f    *os.File
}

func NewCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSV{path: path, w: w, f: f}, nil
}

func (j *CSV) Record(tx Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Write([]string{
		tx.ID,
		tx.AccountID,
		tx.Symbol,
		strconv.FormatInt(tx.Quantity, 10),
		strconv.FormatInt(tx.Price, 10),
		string(tx.Kind),
		string(tx.Side),
		tx.Timestamp.Format(time.RFC3339),
	})
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) ListByAccount(accountID string) ([]Transaction, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var out []Transaction
	for i := len(rows) - 1; i >= 1; i-- { // skip header, newest last on disk
		row := rows[i]
		if len(row) < 8 || row[1] != accountID {
			continue
		}
		qty, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			continue
		}
		price, err := strconv.ParseInt(row[4], 10, 64)
		if err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339, row[7])
		if err != nil {
			continue
		}
		out = append(out, Transaction{
			ID:        row[0],
			AccountID: row[1],
			Symbol:    row[2],
			Quantity:  qty,
			Price:     price,
			Kind:      market.OrderKind(row[5]),
			Side:      market.Side(row[6]),
			Timestamp: ts,
		})
	}
	return out, nil
}

func (j *CSV) Reset() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.f.Truncate(0); err != nil {
		return err
	}
	if _, err := j.f.Seek(0, 0); err != nil {
		return err
	}
	j.w = csv.NewWriter(j.f)
	if err := j.w.Write(csvHeader); err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		j.f.Close()
		return err
	}
	return j.f.Close()
}
