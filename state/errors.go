package state

import "errors"

var (
	ErrNotFound = errors.New("not found")

	ErrNotMember             = errors.New("not a member")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrMalformedProposal     = errors.New("malformed proposal")
	ErrMalformedBatch        = errors.New("malformed batch")
	ErrProposalNotFound      = errors.New("proposal noexists")
	ErrProposalNotActive     = errors.New("proposal is not active")
	ErrInvalidVoteType       = errors.New("invalid vote type")
	ErrAlreadyVoted          = errors.New("already voted")
	ErrVoterIneligible       = errors.New("not member when proposal created")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrNotSucceeded          = errors.New("proposal did not succeed")
	ErrNotReady              = errors.New("tx hasn't surpassed timelock")
	ErrNotQueuedOrExpired    = errors.New("only executable if queued")
	ErrActionExecutionFailed = errors.New("action execution failed")
	ErrNoExecutor            = errors.New("no executor")
	ErrTimeReversed          = errors.New("time reversed")

	ErrTxNonceInvalid = errors.New("nonce invalid")
	ErrTxSigInvalid   = errors.New("signature invalid")
)

// ReasonRevertedWithoutMessage is reported when an action fails without a reason of its own.
const ReasonRevertedWithoutMessage = "call reverted without message"
