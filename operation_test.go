package stages_test

import (
	"context"
	"errors"
	"strconv"

	"github.com/andriiyaremenko/stages"
	"github.com/andriiyaremenko/stages/container"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Operation", func() {
	It("can lift operation", func() {
		fn := stages.LiftOperation(stages.Compose(atoi, inc))
		v, err := fn(context.TODO(), "41")

		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).To(Equal(42))
	})

	It("can lift identity", func() {
		fn := stages.LiftOperation(stages.Identity[string]())
		v, err := fn(context.TODO(), "x")

		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).To(Equal("x"))
	})

	It("should describe the payload type of a failed operation", func() {
		op := func(_ context.Context, s string) (int, error) { return strconv.Atoi(s) }
		c := stages.NewThrottledConsumer(queueOf("x"), op, stages.WithCooldown(0))

		err := c.Run()

		var opErr *stages.OperationError[string]
		Expect(errors.As(err, &opErr)).To(BeTrue())
		Expect(opErr.Payload).To(Equal("x"))
		Expect(opErr.Error()).To(HavePrefix("error processing string: "))
		Expect(err).Should(MatchError(strconv.ErrSyntax))
	})

	It("can compose identity", func() {
		c := stages.NewConsumer(queueOf("1", "2"), stages.Compose(stages.Identity[string](), atoi))

		Expect(c.Run()).ShouldNot(HaveOccurred())
		Expect(container.Drain(c.Output())).To(Equal([]int{1, 2}))
	})
})
