package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/cherriae/FTC-Castle/pkg/metrics"
)

func gathered(t *testing.T) map[string]bool {
	t.Helper()
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("Recording each metric registers its family", func() {
			metrics.RecordSubmissionAccepted()
			metrics.RecordSubmissionRejected("duplicate")
			metrics.RecordUpdate()
			metrics.RecordDelete()
			metrics.RecordPermissionDenied("delete")
			metrics.RecordStoreRetry("insert_record")
			metrics.RecordStoreFailure("insert_record")
			metrics.ObserveStoreLatency("insert_record", 12.5)
			metrics.UpdateRecordsTotal(42)
			metrics.RecordAnalyticsQuery("team_leaderboard")

			names := gathered(t)
			for _, want := range []string{
				"castle_scouting_submissions_accepted_total",
				"castle_scouting_submissions_rejected_total",
				"castle_scouting_records_updated_total",
				"castle_scouting_records_deleted_total",
				"castle_scouting_permission_denied_total",
				"castle_scouting_store_retries_total",
				"castle_scouting_store_failures_total",
				"castle_scouting_store_latency_milliseconds",
				"castle_scouting_records_total",
				"castle_scouting_analytics_queries_total",
			} {
				So(names[want], ShouldBeTrue)
			}
		})
	})

	Convey("Given a manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithPrometheusRegistry(reg),
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("unit"),
		)
		So(m, ShouldNotBeNil)

		Convey("Its metrics land on that registry, not the global one", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)

			found := false
			for _, mf := range families {
				if mf.GetName() == "test_unit_submissions_accepted_total" {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}
