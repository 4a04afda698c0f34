package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the laneup namespace is used", func() {
				So(manager, ShouldNotBeNil)
				manager.draws.WithLabelValues("balanced").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "laneup_draws_draws_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithMetricPrefix("pre"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and constant labels follow the options", func() {
				manager.resultsApplied.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_sub_pre_results_applied_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
				So(manager.refreshInterval, ShouldEqual, 10*time.Second)
			})
		})

		Convey("When metrics are disabled", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(registry))

			Convey("Then nothing reaches the supplied registry", func() {
				manager.drawWarnings.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldBeEmpty)
			})
		})

		Convey("When options receive empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "laneup")
				So(manager.subsystem, ShouldEqual, "draws")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a reconfigured global manager", t, func() {
		Configure(WithMetricPrefix("cfg"), WithCustomLabels(map[string]string{"site": "eu"}))
		defer Configure()

		RecordDrawWarning()
		RecordZeroScoreAssignments(2)
		RecordRatingRollback()

		Convey("Then the served registry carries the new names and labels", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			byName := map[string]float64{}
			for _, f := range families {
				labels := map[string]string{}
				for _, l := range f.GetMetric()[0].GetLabel() {
					labels[l.GetName()] = l.GetValue()
				}
				So(labels["site"], ShouldEqual, "eu")
				if c := f.GetMetric()[0].GetCounter(); c != nil {
					byName[f.GetName()] = c.GetValue()
				}
			}
			So(byName["laneup_draws_cfg_draw_warnings_total"], ShouldEqual, 1)
			So(byName["laneup_draws_cfg_zero_score_assignments_total"], ShouldEqual, 2)
			So(byName["laneup_draws_cfg_rating_changes_total"], ShouldEqual, 1)
		})
	})

	Convey("Given metrics disabled through Configure", t, func() {
		Configure(WithMetricsEnabled(false))
		defer Configure()
		RecordDraw("balanced")

		Convey("Then the served registry stays empty", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(families, ShouldBeEmpty)
		})
	})
}

func TestDrawMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Draw counters are labelled by mode and reason", func() {
			before := testutil.ToFloat64(globalManager.draws.WithLabelValues("fallback"))
			RecordDraw("fallback")
			RecordDraw("fallback")
			So(testutil.ToFloat64(globalManager.draws.WithLabelValues("fallback")), ShouldEqual, before+2)

			failBefore := testutil.ToFloat64(globalManager.drawFailures.WithLabelValues("wrong_selection_size"))
			RecordDrawFailure("wrong_selection_size")
			So(testutil.ToFloat64(globalManager.drawFailures.WithLabelValues("wrong_selection_size")), ShouldEqual, failBefore+1)
		})

		Convey("Gauges hold the last value", func() {
			UpdateRosterSize(42)
			UpdateHistorySize(7)
			UpdatePendingDraws(3)
			So(testutil.ToFloat64(globalManager.rosterSize), ShouldEqual, 42)
			So(testutil.ToFloat64(globalManager.historySize), ShouldEqual, 7)
			So(testutil.ToFloat64(globalManager.pendingDraws), ShouldEqual, 3)
		})

		Convey("Result counters increase", func() {
			applied := testutil.ToFloat64(globalManager.resultsApplied)
			dup := testutil.ToFloat64(globalManager.resultsDuplicate)
			RecordResultApplied()
			RecordResultDuplicate()
			RecordRatingChange("up")
			So(testutil.ToFloat64(globalManager.resultsApplied), ShouldEqual, applied+1)
			So(testutil.ToFloat64(globalManager.resultsDuplicate), ShouldEqual, dup+1)
		})

		Convey("Observations do not panic", func() {
			So(func() {
				ObserveDrawDiff(0)
				ObserveDrawDiff(12)
				ObserveBalanceSwaps(2)
				RecordDrawWarning()
				RecordDrawLatency(0.3)
				RecordDrawExpired()
				RecordFallback()
				RecordRepositoryLatency("list", 1.5)
			}, ShouldNotPanic)
		})
	})
}

func TestOperationalMetrics(t *testing.T) {
	Convey("Given operational metrics", t, func() {
		Convey("HTTP, queue and worker helpers do not panic", func() {
			So(func() {
				RecordHTTPRequest("/api/draws", "POST", "200")
				RecordHTTPRequestDuration("/api/draws", "POST", "200", 4.0)
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.03)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.1)
				UpdateWorkerCount(2)
				UpdateWorkerActiveCount(2)
				UpdateWorkerIdleCount(0)
				UpdateWorkerMessagesPerSecond(1.5)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("Error helpers do not panic", func() {
			So(func() {
				RecordErrorByComponent("repository", "not_found")
				RecordErrorByType("invalid_player", "low")
				RecordErrorByEndpoint("/api/players", "POST", "bad_request")
				RecordErrorLatency("worker", "history", 3)
			}, ShouldNotPanic)
		})

		Convey("The system collector samples immediately", func() {
			ctx, cancel := context.WithCancel(context.Background())
			var lastGC uint32
			globalManager.sampleSystem(&lastGC)
			So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldBeGreaterThan, 0)
			So(testutil.ToFloat64(globalManager.systemMemoryUsage), ShouldBeGreaterThan, 0)
			StartSystemCollector(ctx)
			cancel()
		})

		Convey("The registry exposes the laneup families", func() {
			RecordDraw("balanced")
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			var laneup int
			for _, f := range families {
				if strings.HasPrefix(f.GetName(), "laneup_") {
					laneup++
				}
			}
			So(laneup, ShouldBeGreaterThan, 0)
		})
	})
}
