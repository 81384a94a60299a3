package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every collector is registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.referencesScanned.Add(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, mf := range families {
					So(strings.HasPrefix(mf.GetName(), "test_unit_"), ShouldBeTrue)
				}
			})
		})

		Convey("When registering the same manager twice on one registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When a pass is recorded", func() {
			before := testutil.ToFloat64(globalManager.referencesMatched)
			RecordPass(10, 7, 3, 1, 4)
			UpdateMatchRate(0.7)

			Convey("Then the counters and gauges move", func() {
				So(testutil.ToFloat64(globalManager.referencesMatched)-before, ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.matchRate), ShouldEqual, 0.7)
				So(testutil.ToFloat64(globalManager.distinctNames), ShouldEqual, 4)
			})
		})

		Convey("When strategies are hit", func() {
			before := testutil.ToFloat64(globalManager.strategyHits.WithLabelValues("exact"))
			RecordStrategyHit("exact")
			RecordStrategyHit("exact")

			Convey("Then the labelled counter increases", func() {
				So(testutil.ToFloat64(globalManager.strategyHits.WithLabelValues("exact"))-before, ShouldEqual, 2)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				UpdateRosterSize(120)
				RecordPassDuration(12.5)
				RecordPassOutcome("link", "success")
				RecordGroupWritten()
				RecordGroupLoadError()
				RecordGroupWriteError()
				RecordConsolidation(3, 9)
				RecordStorageOperation("json", "load_group", 0.4)
				UpdateQueueSize(5)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				RecordResolveLatency(15)
				RecordHTTPRequest("/match", "GET", "200")
				RecordHTTPRequestDuration("/match", "GET", "200", 2)
				RecordErrorByComponent("repository", "write_failed")
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.rosterSize), ShouldEqual, 120)
		})

		Convey("When gathering from the exported registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then the linker series are exposed", func() {
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, mf := range families {
					names = append(names, mf.GetName())
				}
				So(names, ShouldContain, "rubik_linker_roster_size")
			})
		})
	})
}
