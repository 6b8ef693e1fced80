package bignum

// ErrorKind identifies a kind of error. It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrInvalidLength is returned when a fixed-width buffer does not have the
	// width the operation requires.
	ErrInvalidLength = ErrorKind("ErrInvalidLength")

	// ErrEvenModulus is returned when a modulus has an even low byte. The
	// Montgomery reduction table only covers odd moduli.
	ErrEvenModulus = ErrorKind("ErrEvenModulus")

	// ErrPrimeModulusRequired is returned when a modulus that is used for
	// Fermat inversion fails the probable-prime check.
	ErrPrimeModulusRequired = ErrorKind("ErrPrimeModulusRequired")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to fixed-width arithmetic. It has full
// support for errors.Is and errors.As, so the caller can ascertain the
// specific reason for the error by checking the underlying error.
type Error struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// makeError creates an Error given a set of arguments.
func makeError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
