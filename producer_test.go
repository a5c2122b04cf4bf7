package stages_test

import (
	"iter"
	"slices"

	"github.com/andriiyaremenko/stages"
	"github.com/andriiyaremenko/stages/container"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type closer struct{ closed int }

func (c *closer) Close() error {
	c.closed++
	return nil
}

var _ = Describe("Producer", func() {
	It("should produce every element in order", func() {
		p := stages.NewSliceProducer([]string{"a", "b", "c"}, nil)
		r := record(p.Events())

		Expect(p.Run()).ShouldNot(HaveOccurred())
		Expect(container.Drain(p.Output())).To(Equal([]string{"a", "b", "c"}))
		Expect(r.Kinds()).To(Equal([]stages.EventKind{
			stages.Started,
			stages.ItemProcessed, stages.ItemProcessed, stages.ItemProcessed,
			stages.Finished,
		}))
	})

	It("should end the sequence at a zero value", func() {
		out := container.NewQueue[int]()
		p := stages.NewSliceProducer([]int{1, 2, 0, 3}, out)

		Expect(p.Run()).ShouldNot(HaveOccurred())
		Expect(container.Drain(out)).To(Equal([]int{1, 2}))
	})

	It("should treat a nil pointer as end of data", func() {
		one, two := 1, 2
		p := stages.NewSliceProducer([]*int{&one, nil, &two}, nil)

		Expect(p.Run()).ShouldNot(HaveOccurred())
		Expect(p.Output().Count()).To(Equal(1))
	})

	It("should stop pulling from an infinite sequence at a zero value", func() {
		var pulled int
		var seq iter.Seq[int] = func(yield func(int) bool) {
			for i := 5; ; i-- {
				pulled++
				if !yield(i) {
					return
				}
			}
		}

		p := stages.NewProducer(seq, nil)

		Expect(p.Run()).ShouldNot(HaveOccurred())
		Expect(container.Drain(p.Output())).To(Equal([]int{5, 4, 3, 2, 1}))
		Expect(pulled).To(Equal(6))
	})

	It("should buffer elements the output refuses", func() {
		out := container.NewBounded[int](2)
		p := stages.NewSliceProducer([]int{1, 2, 3, 4}, out)

		Expect(p.Run()).ShouldNot(HaveOccurred())
		Expect(p.Pending()).To(Equal(2))
		Expect(container.Drain(out)).To(Equal([]int{1, 2}))

		next := container.NewQueue[int]()
		p.SetOutput(next)

		Expect(p.Run()).ShouldNot(HaveOccurred())
		Expect(p.Pending()).To(Equal(0))
		Expect(container.Drain(next)).To(Equal([]int{3, 4, 1, 2, 3, 4}))
	})

	It("should fail without a sequence", func() {
		p := stages.NewProducer[int](nil, nil)

		Expect(p.Run()).Should(MatchError(stages.ErrMissingInput))
	})

	It("should release its resource on dispose", func() {
		res := new(closer)
		p := stages.NewSliceProducer([]int{1}, nil, stages.WithResource(res))

		Expect(p.Run()).ShouldNot(HaveOccurred())
		Expect(p.Dispose()).ShouldNot(HaveOccurred())
		Expect(res.closed).To(Equal(1))
	})

	It("should ignore a run started while producing", func() {
		var p *stages.Producer[int]
		nested := []error{}

		p = stages.NewSliceProducer([]int{1, 2}, nil)
		p.Events().Subscribe(stages.ItemProcessed, func(stages.Event[int]) error {
			nested = append(nested, p.Run())
			return nil
		})

		Expect(p.Run()).ShouldNot(HaveOccurred())
		Expect(slices.ContainsFunc(nested, func(err error) bool { return err != nil })).To(BeFalse())
		Expect(p.Output().Count()).To(Equal(2))
	})

	It("should run asynchronously", func() {
		p := stages.NewSliceProducer([]int{1, 2, 3}, nil)

		task := p.RunAsync()

		Expect(task.Wait()).ShouldNot(HaveOccurred())
		Expect(p.Running()).To(BeFalse())
		Expect(p.Ownership()).To(Equal(stages.SelfOwned))
		Expect(container.Drain(p.Output())).To(Equal([]int{1, 2, 3}))
		Expect(p.Dispose()).ShouldNot(HaveOccurred())

		expectNoLeaks()
	})
})
