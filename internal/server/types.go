package server

// FibonacciResponse is the JSON body of a successful /fibonacci request.
type FibonacciResponse struct {
	// N is the index of the Fibonacci number requested.
	N uint64 `json:"n"`
	// Algorithm is the read method that produced the result.
	Algorithm string `json:"algorithm"`
	// Result is F(n) in decimal. Encoded as a string since it rarely fits
	// a JSON number.
	Result string `json:"result"`
	// Digits is the number of decimal digits of Result.
	Digits int `json:"digits"`
	// Checksum is the xxhash64 of Result in hexadecimal.
	Checksum string `json:"checksum"`
	// Duration is the formatted computation time.
	Duration string `json:"duration"`
	// Cached reports whether the result was served from the cache.
	Cached bool `json:"cached"`
}

// TimingResponse is the JSON body of a successful /timing request.
type TimingResponse struct {
	Method      string `json:"method"`
	N           uint64 `json:"n"`
	Nanoseconds int64  `json:"nanoseconds"`
	Duration    string `json:"duration"`
}

// ErrorResponse represents the standardized JSON response for an API error.
type ErrorResponse struct {
	// Error is the short error code or status text.
	Error string `json:"error"`
	// Message is a descriptive error message.
	Message string `json:"message,omitempty"`
}

// paramError is a query parameter error with its HTTP status.
type paramError struct {
	Message    string
	StatusCode int
}

// Error implements the error interface.
func (e paramError) Error() string {
	return e.Message
}
