package neat

import "errors"

// Sentinel errors returned by the core engine. Callers should match with
// errors.Is; most are wrapped with additional context via fmt.Errorf("%w").
var (
	ErrDimensionMismatch    = errors.New("neat: dimension mismatch")
	ErrInvalidOption        = errors.New("neat: invalid option")
	ErrUnsupportedMutation  = errors.New("neat: unsupported mutation")
	ErrUnknownActivation    = errors.New("neat: unknown activation function")
	ErrUnknownOptimizer     = errors.New("neat: unknown optimizer")
	ErrUnknownCost          = errors.New("neat: unknown cost function")
	ErrNestedLookahead      = errors.New("neat: lookahead optimizer cannot wrap another lookahead")
	ErrSelfConnectionExists = errors.New("neat: node already has a self-connection")
	ErrConnectionExists     = errors.New("neat: connection already exists")
	ErrConnectionNotFound   = errors.New("neat: connection not found")
	ErrNodeNotInNetwork     = errors.New("neat: node does not belong to this network")
	ErrEmptyDataset         = errors.New("neat: training dataset is empty")
	ErrNoStopCondition      = errors.New("neat: neither iterations nor target_error was supplied")
	ErrInvalidDropout       = errors.New("neat: dropout must be in [0, 1)")
	ErrBatchTooLarge        = errors.New("neat: batch_size exceeds dataset size")
)
