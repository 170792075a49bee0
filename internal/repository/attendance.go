package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

type AttendanceRepository struct {
	pool PgxPool
}

func NewAttendanceRepository(pool PgxPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

func (r *AttendanceRepository) Create(ctx context.Context, record *domain.AttendanceRecord) error {
	query := `
		INSERT INTO attendance (name, "timestamp")
		VALUES ($1, $2)
		RETURNING id
	`

	record.Timestamp = domain.Truncate(record.Timestamp)

	if err := r.pool.QueryRow(ctx, query, record.Name, record.Timestamp).Scan(&record.ID); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}

	return nil
}

// List returns records newest first. Ties on the timestamp resolve to the
// most recently inserted record.
func (r *AttendanceRepository) List(ctx context.Context, filter domain.AttendanceFilter) ([]domain.AttendanceRecord, error) {
	var (
		conds []string
		args  []any
	)

	if filter.Date != nil {
		start, end := domain.DayBounds(*filter.Date)
		args = append(args, start, end)
		conds = append(conds, fmt.Sprintf(`"timestamp" >= $%d AND "timestamp" < $%d`, len(args)-1, len(args)))
	}
	if filter.NameSubstring != "" {
		args = append(args, likePattern(filter.NameSubstring))
		conds = append(conds, fmt.Sprintf(`name ILIKE $%d`, len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT id, name, "timestamp" FROM attendance`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(` ORDER BY "timestamp" DESC, id DESC`)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AttendanceRecord, 0)
	for rows.Next() {
		var rec domain.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}

	return records, nil
}

func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM attendance WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrAttendanceNotFound
	}

	return nil
}

// Summary counts records per name (most frequent first) and per day
// (chronological).
func (r *AttendanceRepository) Summary(ctx context.Context) (*domain.AttendanceSummary, error) {
	summary := &domain.AttendanceSummary{
		ByName: make([]domain.NameCount, 0),
		ByDay:  make([]domain.DayCount, 0),
	}

	rows, err := r.pool.Query(ctx, `
		SELECT name, COUNT(*) FROM attendance
		GROUP BY name
		ORDER BY COUNT(*) DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("summarize attendance by name: %w", err)
	}
	for rows.Next() {
		var c domain.NameCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan name count: %w", err)
		}
		summary.ByName = append(summary.ByName, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate name counts: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT to_char("timestamp", 'YYYY-MM-DD') AS day, COUNT(*) FROM attendance
		GROUP BY day
		ORDER BY day
	`)
	if err != nil {
		return nil, fmt.Errorf("summarize attendance by day: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.DayCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, fmt.Errorf("scan day count: %w", err)
		}
		summary.ByDay = append(summary.ByDay, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day counts: %w", err)
	}

	return summary, nil
}

// DeleteBefore removes records older than cutoff and returns how many went.
func (r *AttendanceRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM attendance WHERE "timestamp" < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune attendance: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ AttendanceRepositoryInterface = (*AttendanceRepository)(nil)
