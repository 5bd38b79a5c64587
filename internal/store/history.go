package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/lthms/lore/internal/lore"
)

// Years returns the distinct years of all history items, optionally
// restricted to one year.
func (s *Store) Years(filter *lore.Year) ([]lore.Year, error) {
	var w where
	if filter != nil {
		w.add("year = ?", int64(*filter))
	}
	return queryColumn(s.db, "query years",
		`SELECT DISTINCT year FROM history_items`+w.String()+` ORDER BY year`,
		w.args, scanInt[lore.Year])
}

// Days returns the distinct days within year. Items without a day yield
// lore.NoDay, which sorts first.
func (s *Store) Days(year lore.Year, filter *lore.Day) ([]lore.Day, error) {
	var w where
	w.add("year = ?", int64(year))
	if filter != nil {
		w.add("day IS ?", dayArg(*filter))
	}
	return queryColumn(s.db, "query days",
		`SELECT DISTINCT day FROM history_items`+w.String()+` ORDER BY day`,
		w.args, func(rows *sql.Rows) (lore.Day, error) {
			var n sql.NullInt64
			err := rows.Scan(&n)
			return dayFrom(n), err
		})
}

// Timestamps returns the timestamps within year, optionally scoped to one
// day and to one exact timestamp.
func (s *Store) Timestamps(year lore.Year, day *lore.Day, filter *lore.Timestamp) ([]lore.Timestamp, error) {
	var w where
	w.add("year = ?", int64(year))
	if day != nil {
		w.add("day IS ?", dayArg(*day))
	}
	if filter != nil {
		w.add("timestamp = ?", int64(*filter))
	}
	return queryColumn(s.db, "query timestamps",
		`SELECT timestamp FROM history_items`+w.String()+` ORDER BY timestamp, id`,
		w.args, scanInt[lore.Timestamp])
}

// HistoryItemsAt returns every item recorded at ts.
func (s *Store) HistoryItemsAt(ts lore.Timestamp) ([]lore.HistoryItem, error) {
	return queryColumn(s.db, "query history items",
		`SELECT timestamp, year, day, content, properties FROM history_items WHERE timestamp = ? ORDER BY id`,
		[]any{int64(ts)}, scanHistoryItem)
}

func scanHistoryItem(rows *sql.Rows) (lore.HistoryItem, error) {
	var (
		item  lore.HistoryItem
		ts    int64
		year  int64
		day   sql.NullInt64
		props string
	)
	if err := rows.Scan(&ts, &year, &day, &item.Content, &props); err != nil {
		return item, err
	}
	item.Timestamp = lore.Timestamp(ts)
	item.Year = lore.Year(year)
	item.Day = dayFrom(day)
	if props != "" {
		if err := json.Unmarshal([]byte(props), &item.Properties); err != nil {
			return item, fmt.Errorf("history item %d properties: %w", ts, err)
		}
	}
	return item, nil
}

func encodeProperties(props map[string]string) (string, error) {
	if len(props) == 0 {
		return "", nil
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertHistoryItem(x execer, item lore.HistoryItem) error {
	props, err := encodeProperties(item.Properties)
	if err != nil {
		return fmt.Errorf("history item %d properties: %w", item.Timestamp, err)
	}
	_, err = x.Exec(
		`INSERT INTO history_items (timestamp, year, day, content, properties) VALUES (?, ?, ?, ?, ?)`,
		int64(item.Timestamp), int64(item.Year), dayArg(item.Day), string(item.Content), props,
	)
	return err
}

// WriteHistoryItems inserts items in one transaction.
func (s *Store) WriteHistoryItems(items []lore.HistoryItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return storeErr("write history items", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		if err := insertHistoryItem(tx, item); err != nil {
			return storeErr("write history items", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("write history items", err)
	}
	slog.Info("history items written", "count", len(items))
	return nil
}

// RedateHistoryItem moves the item at ts to another year and day.
func (s *Store) RedateHistoryItem(ts lore.Timestamp, year lore.Year, day lore.Day) error {
	res, err := s.db.Exec(
		`UPDATE history_items SET year = ?, day = ? WHERE timestamp = ?`,
		int64(year), dayArg(day), int64(ts),
	)
	if err != nil {
		return storeErr("redate history item", err)
	}
	if err := mustAffect("redate history item", res, "history item "+ts.String()); err != nil {
		return err
	}
	slog.Info("history item redated", "timestamp", ts, "year", year, "day", day)
	return nil
}

func (s *Store) DeleteHistoryItem(ts lore.Timestamp) error {
	res, err := s.db.Exec(`DELETE FROM history_items WHERE timestamp = ?`, int64(ts))
	if err != nil {
		return storeErr("delete history item", err)
	}
	if err := mustAffect("delete history item", res, "history item "+ts.String()); err != nil {
		return err
	}
	slog.Info("history item deleted", "timestamp", ts)
	return nil
}

func (s *Store) SetHistoryContent(ts lore.Timestamp, content lore.HistoryContent) error {
	res, err := s.db.Exec(`UPDATE history_items SET content = ? WHERE timestamp = ?`, string(content), int64(ts))
	if err != nil {
		return storeErr("set history content", err)
	}
	if err := mustAffect("set history content", res, "history item "+ts.String()); err != nil {
		return err
	}
	slog.Info("history content saved", "timestamp", ts)
	return nil
}
