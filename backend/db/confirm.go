package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nightsafe/backend/metrics"
	"nightsafe/backend/priority"
	"nightsafe/backend/server/api"
	"nightsafe/common"

	"github.com/apex/log"
	"github.com/go-sql-driver/mysql"
)

const (
	storeName = "mysql"

	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

var errVersionConflict = errors.New("report version changed")

// ConfirmationStore records confirmations in MySQL. Every attempt is one
// transaction: lock the report row and read its version, check the
// (report, user) pair, insert the confirmation and write the new counters
// only if the version is still the one that was read. Concurrent
// confirmers of one report queue on the row lock.
type ConfirmationStore struct {
	db          *sql.DB
	maxAttempts int
	backoff     priority.Backoff
}

func NewConfirmationStore(db *sql.DB, maxAttempts int) *ConfirmationStore {
	if maxAttempts <= 0 {
		maxAttempts = priority.DefaultMaxAttempts
	}
	return &ConfirmationStore{db: db, maxAttempts: maxAttempts, backoff: priority.DefaultBackoff}
}

func isConflict(err error) bool {
	if errors.Is(err, errVersionConflict) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == errDeadlock || me.Number == errLockWaitTimeout)
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

func (s *ConfirmationStore) Confirm(ctx context.Context, reportId, userId string) (*api.ConfirmResult, error) {
	if reportId == "" || userId == "" {
		return nil, priority.ErrInvalidConfirm
	}
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		res, err := s.tryConfirm(ctx, reportId, userId)
		if isConflict(err) {
			log.Warnf("Confirmation of report %s by %s conflicted on attempt %d: %v", reportId, userId, attempt, err)
			metrics.ConfirmationRetriesTotal.WithLabelValues(storeName).Inc()
			if attempt < s.maxAttempts {
				if err := s.backoff.Wait(ctx, attempt); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	}
	return nil, fmt.Errorf("%w: report %s after %d attempts", priority.ErrRetryableConflict, reportId, s.maxAttempts)
}

func (s *ConfirmationStore) tryConfirm(ctx context.Context, reportId, userId string) (*api.ConfirmResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		log.Errorf("Error creating transaction: %v", err)
		return nil, err
	}
	defer tx.Rollback()

	var (
		severity int
		groupsS  string
		count    int
		version  int64
	)
	err = tx.QueryRowContext(ctx, `SELECT severity, affected_groups, confirmations_count, version
	  FROM reports WHERE id = ? FOR UPDATE`, reportId).Scan(&severity, &groupsS, &count, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", priority.ErrReportNotFound, reportId)
	}
	if err != nil {
		return nil, err
	}
	groups, err := decodeGroups(groupsS)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", reportId, err)
	}

	already := &api.ConfirmResult{
		AlreadyConfirmed:   true,
		ConfirmationsCount: count,
		PriorityScore:      priority.Score(severity, count, groups),
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM report_confirmations
	  WHERE report_id = ? AND user_id = ?`, reportId, userId).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists > 0 {
		return already, nil
	}

	result, err := tx.ExecContext(ctx, `INSERT INTO report_confirmations (report_id, user_id)
	  VALUES (?, ?)`, reportId, userId)
	if isDuplicate(err) {
		// Same user raced us inside another transaction.
		return already, nil
	}
	common.LogResult("insertConfirmation", result, err, true)
	if err != nil {
		return nil, err
	}

	newCount := count + 1
	score := priority.Score(severity, newCount, groups)
	result, err = tx.ExecContext(ctx, `UPDATE reports
	  SET confirmations_count = ?, priority_score = ?, version = version + 1
	  WHERE id = ? AND version = ?`, newCount, score, reportId, version)
	if err != nil {
		return nil, err
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if updated != 1 {
		return nil, errVersionConflict
	}

	if err := tx.Commit(); err != nil {
		log.Errorf("Error committing the transaction: %v", err)
		return nil, err
	}
	return &api.ConfirmResult{
		ConfirmationsCount: newCount,
		PriorityScore:      score,
	}, nil
}
