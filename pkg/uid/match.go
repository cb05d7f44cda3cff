package uid

import "github.com/google/uuid"

// NewMatchID returns a random id for one finished or running match.
func NewMatchID() string {
	return uuid.NewString()
}

// NewConnID tags a relay websocket connection in logs.
func NewConnID() string {
	return uuid.NewString()[:8]
}
