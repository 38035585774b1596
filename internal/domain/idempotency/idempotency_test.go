package idempotency_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cherriae/FTC-Castle/internal/domain/idempotency"
)

func TestTracker(t *testing.T) {
	Convey("Given a new tracker", t, func() {
		tr := idempotency.NewTracker()
		ctx := context.Background()

		Convey("A new token is recorded, a repeat is seen", func() {
			So(tr.SeenAndRecord(ctx, "tok-1"), ShouldBeFalse)
			So(tr.SeenAndRecord(ctx, "tok-1"), ShouldBeTrue)
			So(tr.Size(), ShouldEqual, 1)
		})

		Convey("An empty token is never tracked", func() {
			So(tr.SeenAndRecord(ctx, ""), ShouldBeFalse)
			So(tr.SeenAndRecord(ctx, ""), ShouldBeFalse)
			So(tr.Size(), ShouldEqual, 0)
		})

		Convey("Unrecord frees a token for retry", func() {
			tr.SeenAndRecord(ctx, "tok-1")
			tr.Unrecord(ctx, "tok-1")

			So(tr.SeenAndRecord(ctx, "tok-1"), ShouldBeFalse)
			So(tr.Size(), ShouldEqual, 1)
		})

		Convey("Unrecord of an unknown token is a no-op", func() {
			tr.Unrecord(ctx, "never-seen")
			So(tr.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a bounded tracker", t, func() {
		tr := idempotency.NewTracker(idempotency.WithMaxSize(3))
		ctx := context.Background()

		Convey("The size never exceeds the bound", func() {
			for i := 0; i < 10; i++ {
				tr.SeenAndRecord(ctx, fmt.Sprintf("tok-%d", i))
			}
			So(tr.Size(), ShouldEqual, 3)
		})
	})
}

func TestTrackerConcurrency(t *testing.T) {
	Convey("Given many goroutines racing on the same token", t, func() {
		tr := idempotency.NewTracker()
		ctx := context.Background()

		const goroutines = 50
		var wg sync.WaitGroup
		var mu sync.Mutex
		var newlyRecorded int

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !tr.SeenAndRecord(ctx, "shared") {
					mu.Lock()
					newlyRecorded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Exactly one caller records it", func() {
			So(newlyRecorded, ShouldEqual, 1)
			So(tr.Size(), ShouldEqual, 1)
		})
	})
}
