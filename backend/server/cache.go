package server

import (
	"context"
	"time"

	"nightsafe/backend/kv"
	"nightsafe/backend/server/api"

	"github.com/go-redis/redis/v8"
)

// cachedReports serves reports with the confirmation counts kept in Redis,
// which is where confirmations land when the Redis store is selected.
type cachedReports struct {
	ReportSource
	client redis.Cmdable
}

func (r *cachedReports) ReadReports(ctx context.Context, vp *api.ViewPort, since time.Time) ([]api.Report, error) {
	reports, err := r.ReportSource.ReadReports(ctx, vp, since)
	if err != nil {
		return nil, err
	}
	if err := kv.OverlayCounts(ctx, r.client, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *cachedReports) ReadReport(ctx context.Context, id string) (*api.Report, error) {
	rep, err := r.ReportSource.ReadReport(ctx, id)
	if err != nil {
		return nil, err
	}
	one := []api.Report{*rep}
	if err := kv.OverlayCounts(ctx, r.client, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}
