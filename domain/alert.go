package domain

// Alert is the transient outcome message shown after a mutation.
// Generation is assigned by the store and identifies which alert a
// scheduled clear belongs to.
type Alert struct {
	Message    string `json:"message"`
	Error      bool   `json:"error"`
	Generation uint64 `json:"-"`
}

// IsZero reports whether a is the empty alert.
func (a Alert) IsZero() bool { return a.Message == "" && !a.Error }

// Success builds a non-error alert.
func Success(msg string) Alert { return Alert{Message: msg} }

// Failure builds an error alert.
func Failure(msg string) Alert { return Alert{Message: msg, Error: true} }
