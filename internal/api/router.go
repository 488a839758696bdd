package api

import (
	"net/http"
	"time"

	"judgecore/internal/metrics"
	"judgecore/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Jobs     *services.JobService
	Users    *services.UserService
	Contests *services.ContestService
	Ranklist *services.RanklistService
	// Workers is nil when jobs run in-process.
	Workers WorkerMonitor
}

func NewRouter(svc Services, logger *logrus.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.RequestLogger(&requestLogFormatter{logger: logger}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Get("/health", healthHandler(svc.Workers))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/jobs", NewJobHandler(svc.Jobs).RegisterRoutes)
	r.Route("/users", NewUserHandler(svc.Users).RegisterRoutes)
	r.Route("/contests", NewContestHandler(svc.Contests, svc.Ranklist).RegisterRoutes)

	return r
}

type requestLogFormatter struct {
	logger *logrus.Logger
}

func (f *requestLogFormatter) NewLogEntry(r *http.Request) chiMiddleware.LogEntry {
	return &requestLogEntry{entry: f.logger.WithFields(logrus.Fields{
		"request_id": chiMiddleware.GetReqID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote":     r.RemoteAddr,
	})}
}

type requestLogEntry struct {
	entry *logrus.Entry
}

func (l *requestLogEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	l.entry.WithFields(logrus.Fields{
		"status":     status,
		"bytes":      bytes,
		"elapsed_ms": elapsed.Milliseconds(),
	}).Info("Request completed")
}

func (l *requestLogEntry) Panic(v interface{}, stack []byte) {
	l.entry.WithFields(logrus.Fields{
		"panic": v,
		"stack": string(stack),
	}).Error("Request panicked")
}
