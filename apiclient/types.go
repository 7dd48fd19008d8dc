package apiclient

// Reply is the outcome of a signup or unregister request that completed.
type Reply struct {
	// StatusCode is the HTTP status.
	StatusCode int
	// Message is the success text (2xx responses).
	Message string
	// Detail is the server's error text (non-2xx responses). It may be empty.
	Detail string
}

// OK reports whether the API accepted the request.
func (r Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
