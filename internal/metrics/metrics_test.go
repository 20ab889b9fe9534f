package metrics_test

import (
	"testing"
	"time"

	"github.com/lorenzotomasdiez/debate-coach/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	convey.Convey("Given a fresh metrics manager", t, func() {
		m := metrics.NewManager()

		convey.Convey("When turns resolve", func() {
			m.ObserveTurn(metrics.OutcomeReplied, 200*time.Millisecond)
			m.ObserveTurn(metrics.OutcomeReplied, time.Second)
			m.ObserveTurn(metrics.OutcomeFailed, 50*time.Millisecond)
			m.ObserveTurn(metrics.OutcomeCancelled, 0)

			convey.Convey("Then turn counters are split by outcome", func() {
				count, err := testutil.GatherAndCount(m.Registry(), "debatecoach_session_turns_total")
				convey.So(err, convey.ShouldBeNil)
				convey.So(count, convey.ShouldEqual, 3)
			})

			convey.Convey("Then cancelled turns are not timed", func() {
				count, err := testutil.GatherAndCount(m.Registry(), "debatecoach_session_model_request_duration_seconds")
				convey.So(err, convey.ShouldBeNil)
				convey.So(count, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When scores are observed", func() {
			m.ObserveScore(7, 7)
			m.ObserveScore(8, 7.5)

			convey.Convey("Then the gauge holds the latest average", func() {
				families, err := m.Registry().Gather()
				convey.So(err, convey.ShouldBeNil)
				var avg float64
				for _, f := range families {
					if f.GetName() == "debatecoach_session_average_score" {
						avg = f.GetMetric()[0].GetGauge().GetValue()
					}
				}
				convey.So(avg, convey.ShouldEqual, 7.5)
			})
		})

		convey.Convey("When submissions are rejected", func() {
			m.ObserveRejection("blank")
			m.ObserveRejection("busy")
			m.ObserveRejection("busy")

			convey.Convey("Then each reason gets its own series", func() {
				count, err := testutil.GatherAndCount(m.Registry(), "debatecoach_session_rejected_submissions_total")
				convey.So(err, convey.ShouldBeNil)
				convey.So(count, convey.ShouldEqual, 2)
			})
		})
	})

	convey.Convey("Given custom naming options", t, func() {
		m := metrics.NewManager(metrics.WithNamespace("practice"), metrics.WithSubsystem("coach"))
		m.ObserveRejection("blank")

		convey.Convey("Then metric names use them", func() {
			count, err := testutil.GatherAndCount(m.Registry(), "practice_coach_rejected_submissions_total")
			convey.So(err, convey.ShouldBeNil)
			convey.So(count, convey.ShouldEqual, 1)
		})
	})
}
