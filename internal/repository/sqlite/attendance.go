package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/repository"
)

type AttendanceRepository struct {
	db *sql.DB
}

func (r *AttendanceRepository) Create(ctx context.Context, record *domain.AttendanceRecord) error {
	record.Timestamp = domain.Truncate(record.Timestamp.In(time.Local))

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO attendance (name, "timestamp") VALUES (?, ?)`,
		record.Name, record.Timestamp.Format(domain.TimestampLayout),
	)
	if err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}

	record.ID = id
	return nil
}

// List returns records newest first. The timestamp text sorts
// chronologically, so range filters compare it directly.
func (r *AttendanceRepository) List(ctx context.Context, filter domain.AttendanceFilter) ([]domain.AttendanceRecord, error) {
	var (
		conds []string
		args  []any
	)

	if filter.Date != nil {
		start, end := domain.DayBounds(filter.Date.In(time.Local))
		conds = append(conds, `"timestamp" >= ? AND "timestamp" < ?`)
		args = append(args, start.Format(domain.TimestampLayout), end.Format(domain.TimestampLayout))
	}
	if filter.NameSubstring != "" {
		conds = append(conds, foldFunc+`(name) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(foldName(filter.NameSubstring)))
	}

	var b strings.Builder
	b.WriteString(`SELECT id, name, "timestamp" FROM attendance`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(` ORDER BY "timestamp" DESC, id DESC`)
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AttendanceRecord, 0)
	for rows.Next() {
		var (
			rec domain.AttendanceRecord
			ts  string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &ts); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		rec.Timestamp = parseTimestamp(ts)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}

	return records, nil
}

func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	if n == 0 {
		return domain.ErrAttendanceNotFound
	}

	return nil
}

func (r *AttendanceRepository) Summary(ctx context.Context) (*domain.AttendanceSummary, error) {
	summary := &domain.AttendanceSummary{
		ByName: make([]domain.NameCount, 0),
		ByDay:  make([]domain.DayCount, 0),
	}

	err := r.collect(ctx,
		`SELECT name, COUNT(*) FROM attendance GROUP BY name ORDER BY COUNT(*) DESC, name`,
		func(rows *sql.Rows) error {
			var c domain.NameCount
			if err := rows.Scan(&c.Name, &c.Count); err != nil {
				return err
			}
			summary.ByName = append(summary.ByName, c)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("summarize attendance by name: %w", err)
	}

	err = r.collect(ctx,
		`SELECT substr("timestamp", 1, 10) AS day, COUNT(*) FROM attendance GROUP BY day ORDER BY day`,
		func(rows *sql.Rows) error {
			var c domain.DayCount
			if err := rows.Scan(&c.Date, &c.Count); err != nil {
				return err
			}
			summary.ByDay = append(summary.ByDay, c)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("summarize attendance by day: %w", err)
	}

	return summary, nil
}

func (r *AttendanceRepository) collect(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *AttendanceRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM attendance WHERE "timestamp" < ?`,
		cutoff.In(time.Local).Format(domain.TimestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune attendance: %w", err)
	}
	return res.RowsAffected()
}

var _ repository.AttendanceRepositoryInterface = (*AttendanceRepository)(nil)
