package stages_test

import (
	"context"
	"errors"

	"github.com/andriiyaremenko/stages"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cancellation", func() {
	It("should refuse to cancel a caller supplied context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		c := stages.NewConsumer(queueOf(1, 2, 3), stages.Identity[int]())
		task := c.RunAsyncContext(ctx)

		err := c.Cancel()

		Expect(err).Should(MatchError(stages.ErrManagedScope))
		Expect(c.Ownership()).To(Equal(stages.ExternallySupplied))
		Expect(task.Wait()).ShouldNot(HaveOccurred())
		Expect(c.Dispose()).ShouldNot(HaveOccurred())
		Expect(ctx.Err()).ShouldNot(HaveOccurred())
	})

	It("should cancel a self owned context", func() {
		c := stages.NewConsumer(queueOf(1, 2, 3), stages.Identity[int]())
		task := c.RunAsync()

		Expect(c.Ownership()).To(Equal(stages.SelfOwned))
		Expect(c.Cancel()).ShouldNot(HaveOccurred())

		err := task.Wait()
		if err != nil {
			Expect(err).Should(MatchError(stages.ErrCancelled))
		}

		expectNoLeaks()
	})

	It("should abort a run between items without raising Finished", func() {
		started := make(chan struct{})
		release := make(chan struct{})

		c := stages.NewConsumer[int, int](queueOf(1, 2, 3), nil)
		c.SetOperation(func(n int) int {
			if n == 1 {
				close(started)
				<-release
			}
			return n
		})
		r := record(c.Events())

		task := c.RunAsync()
		<-started
		Expect(c.Cancel()).ShouldNot(HaveOccurred())
		close(release)

		err := task.Wait()

		Expect(err).Should(MatchError(stages.ErrCancelled))
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(r.Kinds()).To(Equal([]stages.EventKind{stages.Started, stages.ItemProcessed}))
		Expect(c.Input().Count()).To(Equal(2))
		Expect(c.Running()).To(BeFalse())

		Expect(c.RunAsync().Wait()).ShouldNot(HaveOccurred())
		Expect(c.Input().Count()).To(Equal(0))
	})

	It("should keep the scope of a run when an overlapping call is skipped", func() {
		started := make(chan struct{})
		release := make(chan struct{})

		c := stages.NewConsumer[int, int](queueOf(1, 2, 3), nil)
		c.SetOperation(func(n int) int {
			if n == 1 {
				close(started)
				<-release
			}
			return n
		})

		task := c.RunAsync()
		<-started

		Expect(c.RunAsync().Wait()).ShouldNot(HaveOccurred())
		Expect(c.Cancel()).ShouldNot(HaveOccurred())
		close(release)

		Expect(task.Wait()).Should(MatchError(stages.ErrCancelled))
		Expect(c.Input().Count()).To(Equal(2))
		Expect(c.Output().Count()).To(Equal(1))
	})

	It("should keep self ownership when a caller context arrives mid run", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		started := make(chan struct{})
		release := make(chan struct{})

		c := stages.NewConsumer[int, int](queueOf(1, 2, 3), nil)
		c.SetOperation(func(n int) int {
			if n == 1 {
				close(started)
				<-release
			}
			return n
		})

		task := c.RunAsync()
		<-started

		Expect(c.RunAsyncContext(ctx).Wait()).ShouldNot(HaveOccurred())
		Expect(c.Ownership()).To(Equal(stages.SelfOwned))
		Expect(c.Cancel()).ShouldNot(HaveOccurred())
		close(release)

		Expect(task.Wait()).Should(MatchError(stages.ErrCancelled))
		Expect(ctx.Err()).ShouldNot(HaveOccurred())
		Expect(c.Input().Count()).To(Equal(2))
	})

	It("should not start a run under a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		c := stages.NewConsumer(queueOf(1), func(n int) int {
			called = true
			return n
		})

		task := c.RunAsyncContext(ctx)

		<-task.Done()
		Expect(task.Err()).Should(MatchError(stages.ErrCancelled))
		Expect(called).To(BeFalse())
		Expect(c.Input().Count()).To(Equal(1))
	})

	It("should pass the context of a caller to observers", func() {
		type key struct{}
		ctx := context.WithValue(context.Background(), key{}, "caller")

		p := stages.NewSliceProducer([]int{1}, nil)

		var seen []any
		p.Events().Subscribe(stages.Started, func(e stages.Event[int]) error {
			seen = append(seen, e.Ctx.Value(key{}))
			return nil
		})

		Expect(p.RunAsyncContext(ctx).Wait()).ShouldNot(HaveOccurred())
		Expect(seen).To(Equal([]any{"caller"}))
	})
})
