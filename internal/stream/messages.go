package stream

import (
	"time"

	"github.com/lumen-labs/signal-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Message type tags on the subscription channel.
const (
	TypeInitialData = "initial_data"
	TypeUpdate      = "update"
	TypeError       = "error"
)

// InitialData is the first frame pushed after a successful attach.
type InitialData struct {
	Type string      `json:"type"`
	Data types.Quote `json:"data"`
}

// Update is the steady-state frame pushed once per cycle.
type Update struct {
	Type           string                `json:"type"`
	Symbol         string                `json:"symbol"`
	Price          decimal.Decimal       `json:"price"`
	Action         types.Action          `json:"action"`
	Explanation    string                `json:"explanation"`
	Timestamp      time.Time             `json:"timestamp"`
	SimulationData types.SessionSnapshot `json:"simulation_data"`
}

// ErrorMessage reports a cycle failure without closing the channel.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Sink receives the frames a loop pushes. Send must not be called again
// after it returns an error.
type Sink interface {
	Send(msg any) error
}
