package client

import (
	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/protocol"
)

type subscriber func(protocol.Message) bool

// Dispatcher delivers each inbound message to every subscriber registered for
// its type, in registration order.
type Dispatcher struct {
	subs   []subscriber
	logger *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger.Named("dispatch")}
}

// Handle registers fn for messages of concrete type T.
func Handle[T protocol.Message](d *Dispatcher, fn func(T)) {
	d.subs = append(d.subs, func(msg protocol.Message) bool {
		m, ok := msg.(T)
		if !ok {
			return false
		}
		fn(m)
		return true
	})
}

func (d *Dispatcher) Dispatch(msg protocol.Message) {
	handled := false
	for _, sub := range d.subs {
		if sub(msg) {
			handled = true
		}
	}
	if !handled {
		d.logger.Debug("no subscriber", zap.String("kind", string(msg.Kind())))
	}
}
