package server

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"nightsafe/backend/config"
	"nightsafe/backend/db"
	"nightsafe/backend/server/api"
	"nightsafe/common"
)

var (
	serverDBOnce sync.Once
	serverDB     *sql.DB
	serverDBErr  error
)

func getServerDB(cfg *config.Config) (*sql.DB, error) {
	serverDBOnce.Do(func() {
		serverDB, serverDBErr = common.DBConnect(common.MySQLConfig{
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			Database: cfg.DBName,
		})
	})
	return serverDB, serverDBErr
}

func closeServerDB() {
	if serverDB != nil {
		_ = serverDB.Close()
	}
}

// sqlReports serves reports and segments from the MySQL pool.
type sqlReports struct {
	db *sql.DB
}

func (r *sqlReports) ReadReports(ctx context.Context, vp *api.ViewPort, since time.Time) ([]api.Report, error) {
	return db.ReadReports(ctx, r.db, vp, since)
}

func (r *sqlReports) ReadSegments(ctx context.Context) ([]api.RouteSegment, error) {
	return db.ReadSegments(ctx, r.db)
}

func (r *sqlReports) ReadReport(ctx context.Context, id string) (*api.Report, error) {
	return db.ReadReport(ctx, r.db, id)
}
