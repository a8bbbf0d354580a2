package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDomain   = errors.New("invalid domain")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrEmptyValue      = errors.New("empty value")
	ErrRequired        = errors.New("required field missing")
	ErrMissingSecret   = errors.New("missing secret reference")
	ErrExcludedDomain  = errors.New("domain is excluded")
	ErrDeclined        = errors.New("declined by operator")

	ErrNetworkTimeout     = errors.New("network timeout")
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrDNSQueryFailed     = errors.New("DNS query failed")

	ErrSSHConnectFailed = errors.New("SSH connection failed")
	ErrSSHCommandFailed = errors.New("SSH command execution failed")
	ErrCommandFailed    = errors.New("command execution failed")

	ErrConfigReadFailed   = errors.New("config read failed")
	ErrConfigParseFailed  = errors.New("config parse failed")
	ErrConfigValidateFail = errors.New("config validation failed")

	ErrStoreOpenFailed  = errors.New("tracking store open failed")
	ErrStoreReadFailed  = errors.New("tracking store read failed")
	ErrStoreWriteFailed = errors.New("tracking store write failed")
	ErrStoreCorrupt     = errors.New("tracking store corrupt")

	ErrSerialUnavailable = errors.New("serial unavailable")
	ErrSerialExhausted   = errors.New("serial space exhausted")
	ErrZoneNotFound      = errors.New("zone not found")
	ErrZoneNotServed     = errors.New("zone not served by nameserver")
	ErrZoneFileMissing   = errors.New("zone file not found")
	ErrRemoteAPI         = errors.New("remote DNS API failed")

	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrUnsupportedOp       = errors.New("operation not supported by provider")
	ErrMissingCredential   = errors.New("missing credential")

	ErrAffiliationFailed = errors.New("affiliation source failed")
	ErrDelegationFailed  = errors.New("delegation verification failed")
)

func RequiredField(field string) error {
	return fmt.Errorf("%w: %s", ErrRequired, field)
}

func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func WrapDomain(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("domain[%s]: %w", name, err)
}

type OpError struct {
	Op    string
	Cause error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *OpError) Unwrap() error {
	return e.Cause
}

func NewOpError(op string, cause error) error {
	return &OpError{Op: op, Cause: cause}
}

// IsStructural reports errors that are a definitive answer about a zone
// rather than a failure to get one. Repeating the call cannot change them.
func IsStructural(err error) bool {
	return errors.Is(err, ErrZoneNotFound) ||
		errors.Is(err, ErrZoneNotServed) ||
		errors.Is(err, ErrUnsupportedOp)
}
