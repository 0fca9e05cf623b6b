package pool

// HookPermissions declares which engine lifecycle callbacks a hook
// registers for. This system enables exactly the two swap callbacks.
type HookPermissions struct {
	BeforeInitialize       bool
	AfterInitialize        bool
	BeforeAddLiquidity     bool
	AfterAddLiquidity      bool
	BeforeRemoveLiquidity  bool
	AfterRemoveLiquidity   bool
	BeforeSwap             bool
	AfterSwap              bool
	BeforeDonate           bool
	AfterDonate            bool
}

// JITPermissions returns the registration for the JIT controller: pre- and
// post-swap only.
func JITPermissions() HookPermissions {
	return HookPermissions{
		BeforeSwap: true,
		AfterSwap:  true,
	}
}

// HookResult is what a swap callback returns to the engine: the fixed
// no-op sentinel plus an optional fee override, always zero here.
type HookResult struct {
	Sentinel    string
	FeeOverride uint32
}

// NoOpSentinel is the fixed acknowledgement callbacks must return so the
// engine continues the swap unchanged.
const NoOpSentinel = "jit.noop"

// NoOpResult returns the fixed callback acknowledgement.
func NoOpResult() HookResult {
	return HookResult{Sentinel: NoOpSentinel, FeeOverride: 0}
}
