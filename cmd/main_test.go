package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/smarthire/internal/adapters/repository/memstore"
	"github.com/okian/smarthire/internal/adapters/repository/poscache"
	"github.com/okian/smarthire/internal/config"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/pkg/logger"
	"github.com/okian/smarthire/pkg/metrics"
)

func TestOpenStore(t *testing.T) {
	convey.Convey("Given a config", t, func() {
		ctx := context.Background()
		cfg := config.New()
		log := logger.NewNop()

		convey.Convey("When the memory backend is selected", func() {
			store, closeStore, err := openStore(ctx, cfg, log)
			defer closeStore()

			convey.Convey("Then an in-memory store should be returned", func() {
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*memstore.Store)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a Redis address is configured", func() {
			mr := miniredis.RunT(t)
			cfg.RedisAddr = mr.Addr()

			store, closeStore, err := openStore(ctx, cfg, log)
			defer closeStore()

			convey.Convey("Then the store should be wrapped by the position cache", func() {
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*poscache.Store)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the backend is unknown", func() {
			cfg.StorageBackend = "mysql"
			_, _, err := openStore(ctx, cfg, log)

			convey.Convey("Then it should fail with ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestHandlerWiring(t *testing.T) {
	convey.Convey("Given a seeded service behind the full handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 2
		cfg.QueueSize = 16
		log := logger.NewNop()

		store, closeStore, err := openStore(ctx, cfg, log)
		convey.So(err, convey.ShouldBeNil)
		defer closeStore()

		svc := newService(cfg, store, log)
		convey.So(seedMemory(ctx, svc), convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		h := newHandler(ctx, cfg, svc, log)
		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("Then the default positions should be listed", func() {
			w := get("/api/positions")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			var ps []model.Position
			convey.So(json.Unmarshal(w.Body.Bytes(), &ps), convey.ShouldBeNil)
			convey.So(len(ps), convey.ShouldEqual, len(model.DefaultPositions()))
		})

		convey.Convey("Then seeding twice should not fail", func() {
			convey.So(seedMemory(ctx, svc), convey.ShouldBeNil)
		})

		convey.Convey("Then every surface should be routed", func() {
			for _, path := range []string{"/healthz", "/metrics", "/api/stats", "/api-docs", "/openapi.yaml", "/"} {
				convey.So(get(path).Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then responses should carry a request id", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			req.Header.Set("X-Request-ID", "req-42")
			h.ServeHTTP(w, req)

			convey.So(w.Header().Get("X-Request-ID"), convey.ShouldEqual, "req-42")
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When the service metrics updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			svc := newService(config.New(), memstore.New(), logger.NewNop())

			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When system metrics are updated directly", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("When a metrics manager is built on its own registry", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
