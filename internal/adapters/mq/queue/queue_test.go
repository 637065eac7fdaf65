package queue_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/fieldday/combine/internal/adapters/mq/queue"
	"github.com/fieldday/combine/internal/domain/model"
)

func job(i int) queue.Job {
	return queue.Job{Index: i, Row: model.MappedRow{model.FieldFirstName: "Jordan"}}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given an in-memory queue", t, func() {
		ctx := context.Background()

		Convey("Enqueue then dequeue preserves the job", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))
			So(q.Enqueue(ctx, job(0)), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 1)

			got := <-q.Dequeue(ctx)
			So(got.Index, ShouldEqual, 0)
			So(got.Row[model.FieldFirstName], ShouldEqual, "Jordan")
		})

		Convey("Enqueue fails once capacity is reached", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(2))
			So(q.Enqueue(ctx, job(0)), ShouldBeTrue)
			So(q.Enqueue(ctx, job(1)), ShouldBeTrue)
			So(q.Enqueue(ctx, job(2)), ShouldBeFalse)
		})

		Convey("Enqueue fails after close", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(2))
			So(q.Close(), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
			So(q.Enqueue(ctx, job(0)), ShouldBeFalse)
		})

		Convey("Close is idempotent", func() {
			q := queue.NewInMemoryQueue()
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
		})

		Convey("Dequeue drains remaining jobs then closes", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))
			So(q.Enqueue(ctx, job(0)), ShouldBeTrue)
			So(q.Enqueue(ctx, job(1)), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			out := q.Dequeue(ctx)
			indices := make([]int, 0, 2)
			for j := range out {
				indices = append(indices, j.Index)
			}
			So(indices, ShouldResemble, []int{0, 1})
		})

		Convey("Dequeue respects context cancellation", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))
			cancelCtx, cancel := context.WithCancel(ctx)
			out := q.Dequeue(cancelCtx)
			cancel()
			So(q.Enqueue(ctx, job(0)), ShouldBeTrue)

			// A job already in flight may still be delivered; the channel
			// must close shortly after either way.
			closed := false
			deadline := time.After(time.Second)
			for !closed {
				select {
				case _, ok := <-out:
					closed = !ok
				case <-deadline:
					closed = true
				}
			}
			So(closed, ShouldBeTrue)
		})
	})
}
