package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingHook struct {
	count int
	last  HookCtx
}

func (h *countingHook) Func(ctx HookCtx) {
	h.count++
	h.last = ctx
}

var _ = Describe("HookableBase", func() {
	var (
		base *HookableBase
		pos  = &HookPos{Name: "Test"}
	)

	BeforeEach(func() {
		base = &HookableBase{}
	})

	It("should invoke registered hooks", func() {
		h := &countingHook{}
		base.AcceptHook(h)

		base.InvokeHook(HookCtx{Pos: pos, Item: 42})

		Expect(base.NumHooks()).To(Equal(1))
		Expect(h.count).To(Equal(1))
		Expect(h.last.Pos).To(BeIdenticalTo(pos))
		Expect(h.last.Item).To(Equal(42))
	})

	It("should panic on duplicated hook", func() {
		h := &countingHook{}
		base.AcceptHook(h)

		Expect(func() { base.AcceptHook(h) }).To(Panic())
	})

	It("should adapt functions", func() {
		called := 0
		base.AcceptHook(HookFunc(func(HookCtx) { called++ }))
		base.AcceptHook(HookFunc(func(HookCtx) { called++ }))

		base.InvokeHook(HookCtx{Pos: pos})

		Expect(called).To(Equal(2))
		Expect(base.Hooks()).To(HaveLen(2))
	})

	It("should return a copy of the hooks", func() {
		h := &countingHook{}
		base.AcceptHook(h)

		hooks := base.Hooks()
		hooks[0] = nil

		Expect(base.Hooks()).To(ConsistOf(BeIdenticalTo(h)))
	})
})
