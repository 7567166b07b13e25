package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nightsafe/backend/metrics"
	"nightsafe/backend/priority"
	"nightsafe/backend/server/api"

	"github.com/apex/log"
	"github.com/go-redis/redis/v8"
)

const (
	storeName = "redis"

	fieldSeverity      = "severity"
	fieldGroups        = "affected_groups"
	fieldConfirmations = "confirmations_count"
)

var errNotCached = errors.New("report not cached")

// confirmScript adds the user to the confirmation set and, when the user is
// new, bumps the count in the same step. It answers {added, count, severity,
// groups}, or {-1} when the report hash is missing.
var confirmScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1}
end
local st = redis.call('HMGET', KEYS[1], 'severity', 'affected_groups', 'confirmations_count')
if not tonumber(st[1]) or not tonumber(st[3]) then
  return redis.error_reply('corrupt report state')
end
local added = redis.call('SADD', KEYS[2], ARGV[1])
local count = tonumber(st[3])
if added == 1 then
  count = redis.call('HINCRBY', KEYS[1], 'confirmations_count', 1)
end
return {added, count, st[1], st[2] or ''}
`)

// seedScript writes the report state unless another caller already did.
var seedScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'severity', ARGV[1], 'affected_groups', ARGV[2], 'confirmations_count', ARGV[3])
return 1
`)

// Loader fetches a report that is not cached yet, usually from MySQL.
type Loader func(ctx context.Context, reportId string) (*api.Report, error)

// ConfirmationStore keeps confirmation counters in a Redis hash per report
// and the set of confirming users next to it. The check-and-increment runs
// as one script, so concurrent confirmers of a report never conflict; an
// attempt is only repeated when the report has to be seeded first.
type ConfirmationStore struct {
	client      *redis.Client
	maxAttempts int
	backoff     priority.Backoff
	load        Loader
}

func NewConfirmationStore(client *redis.Client, maxAttempts int, load Loader) *ConfirmationStore {
	if maxAttempts <= 0 {
		maxAttempts = priority.DefaultMaxAttempts
	}
	return &ConfirmationStore{
		client:      client,
		maxAttempts: maxAttempts,
		backoff:     priority.DefaultBackoff,
		load:        load,
	}
}

func reportKey(id string) string {
	return "report:" + id
}

func confirmationsKey(id string) string {
	return "report:" + id + ":confirmations"
}

func groupsString(groups []api.AffectedGroup) string {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.String())
	}
	return strings.Join(names, ",")
}

func parseGroups(s string) ([]api.AffectedGroup, error) {
	groups := make([]api.AffectedGroup, 0)
	if s == "" {
		return groups, nil
	}
	for _, name := range strings.Split(s, ",") {
		g, err := api.ParseAffectedGroup(name)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// PutReport caches the scoring inputs of a report.
func PutReport(ctx context.Context, c redis.Cmdable, r *api.Report) error {
	return c.HSet(ctx, reportKey(r.Id),
		fieldSeverity, r.Severity,
		fieldGroups, groupsString(r.AffectedGroups),
		fieldConfirmations, r.ConfirmationsCount).Err()
}

func (s *ConfirmationStore) Confirm(ctx context.Context, reportId, userId string) (*api.ConfirmResult, error) {
	if reportId == "" || userId == "" {
		return nil, priority.ErrInvalidConfirm
	}
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		res, err := s.tryConfirm(ctx, reportId, userId)
		if !errors.Is(err, errNotCached) {
			return res, err
		}
		if s.load == nil {
			return nil, fmt.Errorf("%w: %s", priority.ErrReportNotFound, reportId)
		}
		seeded, err := s.seed(ctx, reportId)
		if err != nil {
			return nil, err
		}
		if !seeded && attempt > 1 {
			// Seeded by someone else and gone again before we got to it.
			log.Warnf("Report %s evicted while confirming, attempt %d", reportId, attempt)
			metrics.ConfirmationRetriesTotal.WithLabelValues(storeName).Inc()
			if err := s.backoff.Wait(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w: report %s after %d attempts", priority.ErrRetryableConflict, reportId, s.maxAttempts)
}

func (s *ConfirmationStore) seed(ctx context.Context, reportId string) (bool, error) {
	r, err := s.load(ctx, reportId)
	if err != nil {
		return false, err
	}
	n, err := seedScript.Run(ctx, s.client, []string{reportKey(reportId)},
		r.Severity, groupsString(r.AffectedGroups), r.ConfirmationsCount).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *ConfirmationStore) tryConfirm(ctx context.Context, reportId, userId string) (*api.ConfirmResult, error) {
	reply, err := confirmScript.Run(ctx, s.client,
		[]string{reportKey(reportId), confirmationsKey(reportId)}, userId).Slice()
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", reportId, err)
	}
	if len(reply) == 1 {
		return nil, errNotCached
	}
	if len(reply) != 4 {
		return nil, fmt.Errorf("report %s: unexpected confirm reply %v", reportId, reply)
	}
	added, _ := reply[0].(int64)
	count, _ := reply[1].(int64)
	severityS, _ := reply[2].(string)
	groupsS, _ := reply[3].(string)

	severity, err := strconv.Atoi(severityS)
	if err != nil {
		return nil, fmt.Errorf("report %s: bad severity: %w", reportId, err)
	}
	groups, err := parseGroups(groupsS)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", reportId, err)
	}
	return &api.ConfirmResult{
		AlreadyConfirmed:   added == 0,
		ConfirmationsCount: int(count),
		PriorityScore:      priority.Score(severity, int(count), groups),
	}, nil
}

// OverlayCounts replaces the confirmation counts of reports that have a
// cached counter and rescores them. Reports without one are left as read.
func OverlayCounts(ctx context.Context, c redis.Cmdable, reports []api.Report) error {
	if len(reports) == 0 {
		return nil
	}
	pipe := c.Pipeline()
	cmds := make([]*redis.StringCmd, len(reports))
	for i := range reports {
		cmds[i] = pipe.HGet(ctx, reportKey(reports[i].Id), fieldConfirmations)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	for i, cmd := range cmds {
		n, err := cmd.Int()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			log.Errorf("Bad cached count for report %s: %v", reports[i].Id, err)
			continue
		}
		reports[i].ConfirmationsCount = n
		priority.Rescore(&reports[i])
	}
	return nil
}
