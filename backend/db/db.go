package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"nightsafe/backend/priority"
	"nightsafe/backend/server/api"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

const reportColumns = `id, category, severity, affected_groups, latitude, longitude,
	  status, confirmations_count, event_time`

type scanner interface {
	Scan(dest ...any) error
}

func encodeGroups(groups []api.AffectedGroup) string {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.String())
	}
	return strings.Join(names, ",")
}

func decodeGroups(s string) ([]api.AffectedGroup, error) {
	groups := make([]api.AffectedGroup, 0)
	if s == "" {
		return groups, nil
	}
	for _, name := range strings.Split(s, ",") {
		g, err := api.ParseAffectedGroup(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// scanReport reads one reports row. The priority score is always recomputed
// from the scanned inputs rather than trusted from the table.
func scanReport(row scanner) (*api.Report, error) {
	var (
		r        api.Report
		category string
		status   string
		groups   string
	)
	if err := row.Scan(&r.Id, &category, &r.Severity, &groups, &r.Latitude, &r.Longitude,
		&status, &r.ConfirmationsCount, &r.EventTime); err != nil {
		return nil, err
	}
	var err error
	if r.Category, err = api.ParseCategory(category); err != nil {
		return nil, err
	}
	if r.Status, err = api.ParseStatus(status); err != nil {
		return nil, err
	}
	if r.AffectedGroups, err = decodeGroups(groups); err != nil {
		return nil, err
	}
	priority.Rescore(&r)
	return &r, nil
}

// ReadReports returns reports submitted since the given time. A nil viewport
// selects reports everywhere.
func ReadReports(ctx context.Context, db *sql.DB, vp *api.ViewPort, since time.Time) ([]api.Report, error) {
	query := `SELECT ` + reportColumns + `
	  FROM reports
	  WHERE event_time >= ?`
	args := []any{since}
	if vp != nil {
		query += ` AND latitude >= ? AND latitude <= ? AND longitude >= ? AND longitude <= ?`
		args = append(args, vp.LatMin, vp.LatMax, vp.LonMin, vp.LonMax)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Errorf("Could not retrieve reports: %v", err)
		return nil, err
	}
	defer rows.Close()

	r := make([]api.Report, 0, 100)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			log.Errorf("Cannot scan a report row: %v", err)
			continue
		}
		r = append(r, *rep)
	}
	return r, rows.Err()
}

func ReadReport(ctx context.Context, db *sql.DB, id string) (*api.Report, error) {
	row := db.QueryRowContext(ctx, `SELECT `+reportColumns+`
	  FROM reports
	  WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", priority.ErrReportNotFound, id)
	}
	return r, err
}

// ReadSegments returns the whole route segment catalog.
func ReadSegments(ctx context.Context, db *sql.DB) ([]api.RouteSegment, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, route_id, name, polyline FROM route_segments`)
	if err != nil {
		log.Errorf("Could not retrieve route segments: %v", err)
		return nil, err
	}
	defer rows.Close()

	r := make([]api.RouteSegment, 0)
	for rows.Next() {
		var (
			seg      api.RouteSegment
			polyline []byte
		)
		if err := rows.Scan(&seg.Id, &seg.RouteId, &seg.Name, &polyline); err != nil {
			log.Errorf("Cannot scan a segment row: %v", err)
			continue
		}
		if err := json.Unmarshal(polyline, &seg.Polyline); err != nil {
			log.Errorf("Bad polyline for segment %s: %v", seg.Id, err)
			continue
		}
		if len(seg.Polyline) < 2 {
			log.Errorf("Segment %s has %d polyline points, skipping", seg.Id, len(seg.Polyline))
			continue
		}
		r = append(r, seg)
	}
	return r, rows.Err()
}
