package environment

type CheckStatus int

const (
	CheckStatusOK CheckStatus = iota
	CheckStatusWarning
	CheckStatusError
)

type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Detail  string
}
