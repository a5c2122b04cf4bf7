package stages_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/andriiyaremenko/stages"
	"github.com/andriiyaremenko/stages/container"
)

var _ = Describe("MultiConsumer", func() {
	It("should drain every input into one output", func() {
		m := stages.NewMultiConsumer(atoi, nil)
		m.AddInput(queueOf("1", "2"))
		m.AddInput(queueOf("3"))
		m.AddInput(queueOf("4", "5", "6"))

		Expect(m.Inputs()).To(HaveLen(3))
		Expect(m.Run()).ShouldNot(HaveOccurred())
		Expect(container.Drain(m.Output())).To(Equal([]int{1, 2, 3, 4, 5, 6}))
	})

	It("should keep order within each input under refusals", func() {
		out := newFlaky[int](7)
		m := stages.NewMultiConsumer(stages.Identity[int](), out)
		m.AddInput(queueOf(1, 2, 3, 4, 5))
		m.AddInput(queueOf(10, 20, 30))

		Expect(m.Run()).ShouldNot(HaveOccurred())
		for m.Pending() > 0 {
			Expect(m.Run()).ShouldNot(HaveOccurred())
		}

		Expect(container.Drain(out.Queue)).To(ConsistOf(1, 2, 3, 4, 5, 10, 20, 30))
	})

	It("should return immediately when run while running", func() {
		out := container.NewQueue[int]()
		m := stages.NewMultiConsumer[int, int](nil, out)
		m.AddInput(queueOf(1, 2, 3))

		var before, after []int
		var nestedErr error
		m.SetOperation(func(n int) int {
			if n == 2 {
				before = append(before, out.Count())
				nestedErr = m.Run()
				after = append(after, out.Count())
			}
			return n
		})

		Expect(m.Run()).ShouldNot(HaveOccurred())
		Expect(nestedErr).ShouldNot(HaveOccurred())
		Expect(after).To(Equal(before))
		Expect(container.Drain(out)).To(Equal([]int{1, 2, 3}))
	})

	It("should fail without inputs or operation", func() {
		m := stages.NewMultiConsumer[int, int](nil, nil)

		Expect(m.Run()).Should(MatchError(stages.ErrMissingInput))

		m.AddInput(queueOf(1))
		Expect(m.Run()).Should(MatchError(stages.ErrMissingOperation))
	})

	It("should consume the outputs of several producers", func() {
		p1 := stages.NewSliceProducer([]string{"1", "2"}, nil)
		p2 := stages.NewSliceProducer([]string{"3", "4"}, nil)
		m := stages.Merge(atoi, nil, stages.Source[string](p1), p2)

		Expect(p1.Run()).ShouldNot(HaveOccurred())
		Expect(p2.Run()).ShouldNot(HaveOccurred())
		Expect(container.Drain(m.Output())).To(ConsistOf(1, 2, 3, 4))
	})
})
