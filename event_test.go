package stages_test

import (
	"context"
	"errors"

	"github.com/andriiyaremenko/stages"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Events", func() {
	It("should call listeners in subscription order", func() {
		p := stages.NewSliceProducer([]int{1}, nil)
		events := p.Events()

		var order []string
		events.Subscribe(stages.Started, func(stages.Event[int]) error {
			order = append(order, "first")
			return nil
		})
		sub := events.Subscribe(stages.Started, func(stages.Event[int]) error {
			order = append(order, "second")
			return nil
		})
		events.Subscribe(stages.Started, func(stages.Event[int]) error {
			order = append(order, "third")
			return nil
		})

		Expect(sub.Kind()).To(Equal(stages.Started))
		Expect(events.Len()).To(Equal(3))

		Expect(events.Unsubscribe(sub)).To(BeTrue())
		Expect(events.Unsubscribe(sub)).To(BeFalse())
		Expect(events.Len()).To(Equal(2))

		Expect(p.Run()).ShouldNot(HaveOccurred())
		Expect(order).To(Equal([]string{"first", "third"}))
	})

	It("should run observers on the emitting goroutine", func() {
		p := stages.NewSliceProducer([]string{"1", "2"}, nil)
		c := stages.NewConsumer[string, int](nil, atoi)
		stages.Link(stages.Source[string](p), c)

		var sources []string
		c.Events().Subscribe(stages.ItemProcessed, func(e stages.Event[int]) error {
			sources = append(sources, e.Source.String())
			return nil
		})
		stages.Observe(stages.Emitter[string](p), c)

		Expect(p.Run()).ShouldNot(HaveOccurred())
		Expect(sources).To(Equal([]string{c.ID().String(), c.ID().String()}))
	})

	It("should join listener errors", func() {
		first, second := errors.New("first"), errors.New("second")

		p := stages.NewSliceProducer([]int{1}, nil)
		p.Events().Subscribe(stages.Started, func(stages.Event[int]) error { return first })
		p.Events().Subscribe(stages.Started, func(stages.Event[int]) error { return second })

		err := p.Run()

		Expect(err).Should(MatchError(first))
		Expect(err).Should(MatchError(second))
		Expect(p.Output().Count()).To(Equal(0))
	})

	It("should fire and forget asynchronous observers", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := stages.NewSliceProducer([]string{"1"}, nil)
		c := stages.NewConsumer[string, int](nil, atoi)
		stages.Link(stages.Source[string](p), c)
		stages.ObserveAsync(stages.Emitter[string](p), c)

		Expect(p.RunAsyncContext(ctx).Wait()).ShouldNot(HaveOccurred())
		Eventually(func() int {
			_ = c.Run()
			return c.Output().Count()
		}).Should(Equal(1))
		Eventually(c.Running).Should(BeFalse())

		Expect(c.Ownership()).To(Equal(stages.ExternallySupplied))
		Expect(c.Cancel()).Should(MatchError(stages.ErrManagedScope))
		Expect(stages.StopObserving(stages.Emitter[string](p), c)).To(Equal(3))
	})

	It("should name event kinds", func() {
		Expect(stages.Started.String()).To(Equal("started"))
		Expect(stages.ItemProcessed.String()).To(Equal("item_processed"))
		Expect(stages.Finished.String()).To(Equal("finished"))
		Expect(stages.SelfOwned.String()).To(Equal("self_owned"))
		Expect(stages.ExternallySupplied.String()).To(Equal("externally_supplied"))
	})
})
