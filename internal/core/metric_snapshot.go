package core

import (
	"context"
	"fmt"

	"github.com/edvin/saaslens/internal/model"
	"github.com/edvin/saaslens/internal/platform"
)

type MetricSnapshotService struct {
	db DB
}

func NewMetricSnapshotService(db DB) *MetricSnapshotService {
	return &MetricSnapshotService{db: db}
}

// CreateMany inserts snapshots, skipping any (type, date) pair already stored.
func (s *MetricSnapshotService) CreateMany(ctx context.Context, snaps []model.MetricSnapshot) error {
	for i := range snaps {
		if snaps[i].ID == "" {
			snaps[i].ID = platform.NewID()
		}
		_, err := s.db.Exec(ctx,
			`INSERT INTO metric_snapshots (id, type, value, date, created_at)
			 VALUES ($1, $2, $3, $4, now())
			 ON CONFLICT (type, date) DO NOTHING`,
			snaps[i].ID, snaps[i].Type, snaps[i].Value, snaps[i].Date,
		)
		if err != nil {
			return fmt.Errorf("insert metric snapshot %s: %w", snaps[i].Type, err)
		}
	}
	return nil
}

// List returns the newest snapshots first, optionally restricted to one type.
func (s *MetricSnapshotService) List(ctx context.Context, metricType string, limit int) ([]model.MetricSnapshot, error) {
	b := &queryBuilder{}
	if metricType != "" {
		b.add("type = " + b.arg(metricType))
	}
	query := `SELECT id, type, value, date, created_at FROM metric_snapshots` + b.where() + ` ORDER BY date DESC, type`
	if limit > 0 {
		query += ` LIMIT ` + b.arg(limit)
	}

	rows, err := s.db.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("list metric snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []model.MetricSnapshot{}
	for rows.Next() {
		var m model.MetricSnapshot
		if err := rows.Scan(&m.ID, &m.Type, &m.Value, &m.Date, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan metric snapshot: %w", err)
		}
		snaps = append(snaps, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric snapshots: %w", err)
	}
	return snaps, nil
}
