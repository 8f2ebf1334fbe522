package error

// GenericError is implemented by every typed error in this package so the
// recovery middleware can map a panic to an HTTP status and error code.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
