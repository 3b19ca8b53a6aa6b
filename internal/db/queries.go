package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/models"
)

// InsertUsageSnapshot records a successful usage reading for account.
func (db *DB) InsertUsageSnapshot(account string, snap *models.UsageSnapshot, fetchedAt time.Time) (int64, error) {
	if snap == nil {
		return 0, errors.New("nil usage snapshot")
	}

	query := `
		INSERT INTO usage_snapshots (
			account, five_hour_pct, five_hour_resets_at,
			seven_day_pct, seven_day_resets_at, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	var sevenPct sql.NullInt64
	var sevenResets sql.NullString
	if snap.SevenDay != nil {
		sevenPct = sql.NullInt64{Int64: int64(snap.SevenDay.Utilization), Valid: true}
		sevenResets = nullTime(snap.SevenDay.ResetsAt)
	}

	result, err := db.ExecContext(context.Background(), query,
		account,
		snap.FiveHour.Utilization,
		nullTime(snap.FiveHour.ResetsAt),
		sevenPct,
		sevenResets,
		formatTime(fetchedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert usage snapshot: %w", err)
	}

	id, _ := result.LastInsertId()
	return id, nil
}

// GetUsageHistory returns readings for account since the given time,
// oldest first.
func (db *DB) GetUsageHistory(account string, since time.Time) ([]models.UsagePoint, error) {
	query := `
		SELECT id, account, five_hour_pct, five_hour_resets_at,
			   seven_day_pct, seven_day_resets_at, fetched_at
		FROM usage_snapshots
		WHERE account = ? AND fetched_at >= ?
		ORDER BY fetched_at ASC, id ASC
	`

	rows, err := db.QueryContext(context.Background(), query, account, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query usage history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var points []models.UsagePoint
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// LatestSnapshot returns the most recent reading for account, or nil if
// there is none.
func (db *DB) LatestSnapshot(account string) (*models.UsagePoint, error) {
	query := `
		SELECT id, account, five_hour_pct, five_hour_resets_at,
			   seven_day_pct, seven_day_resets_at, fetched_at
		FROM usage_snapshots
		WHERE account = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1
	`

	p, err := scanPoint(db.QueryRowContext(context.Background(), query, account))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetDailyPeaks returns the highest readings per UTC day for account over
// the last days days, most recent first.
func (db *DB) GetDailyPeaks(account string, days int) ([]models.DailyPeak, error) {
	query := `
		SELECT
			strftime('%Y-%m-%d', fetched_at) as day,
			MAX(five_hour_pct) as five_hour_peak,
			MAX(seven_day_pct) as seven_day_peak,
			COUNT(*) as samples
		FROM usage_snapshots
		WHERE account = ? AND fetched_at >= datetime('now', ?)
		GROUP BY day
		ORDER BY day DESC
	`

	window := fmt.Sprintf("-%d days", days)
	rows, err := db.QueryContext(context.Background(), query, account, window)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily peaks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var peaks []models.DailyPeak
	for rows.Next() {
		var p models.DailyPeak
		var seven sql.NullInt64
		if err := rows.Scan(&p.Day, &p.FiveHourPeak, &seven, &p.Samples); err != nil {
			return nil, fmt.Errorf("failed to scan daily peak: %w", err)
		}
		if seven.Valid {
			v := int(seven.Int64)
			p.SevenDayPeak = &v
		}
		peaks = append(peaks, p)
	}

	return peaks, rows.Err()
}

// RenameAccount moves history from oldName to newName.
func (db *DB) RenameAccount(oldName, newName string) error {
	_, err := db.ExecContext(context.Background(),
		"UPDATE usage_snapshots SET account = ? WHERE account = ?", newName, oldName)
	if err != nil {
		return fmt.Errorf("failed to rename account history: %w", err)
	}
	return nil
}

// DeleteAccountHistory removes all readings for account.
func (db *DB) DeleteAccountHistory(account string) error {
	_, err := db.ExecContext(context.Background(), "DELETE FROM usage_snapshots WHERE account = ?", account)
	if err != nil {
		return fmt.Errorf("failed to delete account history: %w", err)
	}
	return nil
}

// PruneBefore removes readings older than cutoff and returns how many were
// removed.
func (db *DB) PruneBefore(cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM usage_snapshots WHERE fetched_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage history: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPoint(row scanner) (models.UsagePoint, error) {
	var p models.UsagePoint
	var fiveResets, sevenResets sql.NullString
	var sevenPct sql.NullInt64
	var fetchedAt string

	err := row.Scan(&p.ID, &p.Account, &p.FiveHourPercent, &fiveResets, &sevenPct, &sevenResets, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("failed to scan usage snapshot: %w", err)
	}

	if t, ok := parseTimeString(fetchedAt); ok {
		p.FetchedAt = t
	}
	p.FiveHourResets = parseNullTime(fiveResets)
	if sevenPct.Valid {
		v := int(sevenPct.Int64)
		p.SevenDayPercent = &v
		p.SevenDayResets = parseNullTime(sevenResets)
	}
	return p, nil
}

var timeFormats = []string{
	timeLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, ok := parseTimeString(s.String)
	if !ok {
		return nil
	}
	return &t
}
