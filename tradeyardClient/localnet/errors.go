package localnet

import "errors"

// Execution errors, mirroring the runtime's program errors.
var (
	ErrNotEnoughAccountKeys     = errors.New("not enough account keys")
	ErrMissingRequiredSignature = errors.New("missing required signature")
	ErrReadonlyAccount          = errors.New("account is not writable")
	ErrInvalidAccountData       = errors.New("invalid account data")
	ErrIllegalOwner             = errors.New("illegal owner")
	ErrAccountAlreadyInUse      = errors.New("account already in use")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrInvalidSeeds             = errors.New("invalid seeds")
	ErrInvalidInstructionData   = errors.New("invalid instruction data")
	ErrUnsupportedProgram       = errors.New("unsupported program")
)
