package usecase

// Balance log stages.
const (
	StagePre  = "pre"
	StagePost = "post"
)

// ZeroBalance is reported for denominations an account does not hold.
const ZeroBalance = "0"
