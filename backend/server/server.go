package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"nightsafe/backend/config"
	"nightsafe/backend/db"
	"nightsafe/backend/grid"
	"nightsafe/backend/kv"
	"nightsafe/backend/metrics"
	"nightsafe/backend/priority"
	"nightsafe/backend/rabbitmq"
	"nightsafe/backend/route"
	"nightsafe/backend/segrisk"
	"nightsafe/backend/server/api"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	EndPointHelp            = "/help"
	EndPointHealth          = "/health"
	EndPointMetrics         = "/metrics"
	EndPointGetPriority     = "/get_priority"
	EndPointGetHeatmap      = "/get_heatmap"
	EndPointGetDangerZones  = "/get_danger_zones"
	EndPointGetSegmentRisks = "/get_segment_risks"
	EndPointPlanRoute       = "/plan_route"
	EndPointConfirmReport   = "/confirm_report"

	apiVersion = "2.0"
)

var (
	errInvalidViewPort = errors.New("viewport min corner must not exceed max corner")
	errInvalidSeverity = errors.New("severity must be between 1 and 5")
)

// ReportSource supplies stored reports and the route segment catalog.
type ReportSource interface {
	ReadReports(ctx context.Context, vp *api.ViewPort, since time.Time) ([]api.Report, error)
	ReadSegments(ctx context.Context) ([]api.RouteSegment, error)
	ReadReport(ctx context.Context, id string) (*api.Report, error)
}

// EventPublisher announces confirmations that changed a report.
type EventPublisher interface {
	ReportConfirmed(ctx context.Context, reportId, userId string, res *api.ConfirmResult) error
}

// Settings tunes the risk engine for every request.
type Settings struct {
	LookbackDays int
	CellSize     float64
	BaseRadius   float64
	BBoxDelta    float64
	Location     *time.Location
}

type Service struct {
	reports   ReportSource
	confirmer priority.Confirmer
	storeName string
	events    EventPublisher
	settings  Settings
	now       func() time.Time
}

// NewService wires the handlers. events may be nil.
func NewService(reports ReportSource, confirmer priority.Confirmer, storeName string, events EventPublisher, settings Settings) *Service {
	return &Service{
		reports:   reports,
		confirmer: confirmer,
		storeName: storeName,
		events:    events,
		settings:  settings,
		now:       time.Now,
	}
}

func (s *Service) Router() *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET(EndPointHelp, Help)
	router.GET(EndPointHealth, Health)
	router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))
	router.POST(EndPointGetPriority, GetPriority)
	router.POST(EndPointGetHeatmap, s.GetHeatmap)
	router.POST(EndPointGetDangerZones, s.GetDangerZones)
	router.POST(EndPointGetSegmentRisks, s.GetSegmentRisks)
	router.POST(EndPointPlanRoute, s.PlanRoute)
	router.POST(EndPointConfirmReport, s.ConfirmReport)
	return router
}

func StartService(cfg *config.Config) {
	log.Info("Starting the service...")
	metrics.Register()

	sqlDB, err := getServerDB(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer closeServerDB()
	if err := db.InitSchema(sqlDB); err != nil {
		log.Fatalf("Database schema initialization failed: %v", err)
	}
	reports := &sqlReports{db: sqlDB}
	var source ReportSource = reports

	var confirmer priority.Confirmer
	switch cfg.ConfirmStore {
	case config.ConfirmStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		confirmer = kv.NewConfirmationStore(client, cfg.ConfirmMaxAttempts, reports.ReadReport)
		source = &cachedReports{ReportSource: reports, client: client}
	default:
		confirmer = db.NewConfirmationStore(sqlDB, cfg.ConfirmMaxAttempts)
	}

	var events EventPublisher
	if cfg.AMQPURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.Errorf("Report events disabled: %v", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	s := NewService(source, confirmer, cfg.ConfirmStore, events, Settings{
		LookbackDays: cfg.LookbackDays,
		CellSize:     cfg.CellSizeDeg,
		BaseRadius:   cfg.BaseRadiusM,
		BBoxDelta:    cfg.BBoxDeltaDeg,
		Location:     cfg.NightTZ,
	})
	if err := s.Router().Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Errorf("Server stopped: %v", err)
	}
	log.Info("Finished the service. Should not ever being seen.")
}

// bindArgs reads the JSON body. BindJSON has already answered 400 when it fails.
func bindArgs(c *gin.Context, args interface{}) bool {
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in %s call: %v", c.FullPath(), err)
		return false
	}
	return true
}

func checkVersion(c *gin.Context, version string) bool {
	if version != apiVersion {
		log.Errorf("Bad version in %s, expected: %s, got: %v", c.FullPath(), apiVersion, version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.") // 406
		return false
	}
	return true
}

// fail answers with the status matching err.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, priority.ErrInvalidConfirm),
		errors.Is(err, grid.ErrInvalidCellSize),
		errors.Is(err, route.ErrDegenerateRoute),
		errors.Is(err, route.ErrInvalidOverlay),
		errors.Is(err, errInvalidViewPort),
		errors.Is(err, errInvalidSeverity):
		status = http.StatusBadRequest
	case errors.Is(err, segrisk.ErrInvalidSegment):
		// Bad route catalog data, not a bad request.
		log.Errorf("Failed %s: %v", c.FullPath(), err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	case errors.Is(err, priority.ErrReportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, priority.ErrRetryableConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Errorf("Failed %s: %v", c.FullPath(), err)
		c.Status(status) // 500
		return
	}
	c.String(status, err.Error())
}

func (s *Service) since() time.Time {
	days := s.settings.LookbackDays
	if days <= 0 {
		days = 30
	}
	return s.now().AddDate(0, 0, -days)
}

func observe(op string, inputs int, start time.Time) {
	metrics.ComputeDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.InputSize.WithLabelValues(op).Observe(float64(inputs))
}
