package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged combat rolls.
// All rolls are logged at debug level with kind, bounds, and result.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source { return r.src }

// Between returns a uniform int in [lo, hi] inclusive.
//
// Precondition: hi >= lo.
// Postcondition: lo <= result <= hi.
func (r *Roller) Between(lo, hi int) int {
	if hi < lo {
		panic("dice: Between called with hi < lo")
	}
	v := lo + r.src.Intn(hi-lo+1)
	r.logger.Debug("dice roll",
		zap.String("kind", "between"),
		zap.Int("lo", lo),
		zap.Int("hi", hi),
		zap.Int("result", v),
	)
	return v
}

// Percent rolls against a probability in [0,1] and reports success.
// Chances above 1 always succeed; chances at or below 0 always fail.
func (r *Roller) Percent(chance float64) bool {
	v := r.src.Float64()
	ok := v < chance
	r.logger.Debug("dice roll",
		zap.String("kind", "percent"),
		zap.Float64("chance", chance),
		zap.Float64("rolled", v),
		zap.Bool("success", ok),
	)
	return ok
}

// Jitter returns a uniform int in [-spread, +spread] inclusive, used for AI
// score noise.
//
// Precondition: spread >= 0.
func (r *Roller) Jitter(spread int) int {
	if spread == 0 {
		return 0
	}
	return r.Between(-spread, spread)
}
