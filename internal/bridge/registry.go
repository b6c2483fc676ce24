package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/bamboo-ui/bamboo/internal/logging"
	"go.uber.org/zap"
)

// Handler is a script-callable native function. Args arrive as raw JSON in
// call order; the returned value is serialized back to the caller.
type Handler func(args []json.RawMessage) (any, error)

// Registry maps function names to handlers. Later registrations under the
// same name replace earlier ones.
type Registry struct {
	log      *logging.Logger
	handlers map[string]Handler
}

// NewRegistry creates an empty function registry.
func NewRegistry(log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNop()
	}
	return &Registry{
		log:      log,
		handlers: make(map[string]Handler),
	}
}

// Register binds name to handler, replacing any previous binding.
func (r *Registry) Register(name string, handler Handler) {
	if _, exists := r.handlers[name]; exists {
		r.log.Debug("replacing registered function", zap.String("name", name))
	}
	r.handlers[name] = handler
}

// Unregister removes the binding for name, if any.
func (r *Registry) Unregister(name string) {
	delete(r.handlers, name)
}

// Has reports whether name is currently bound.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Invoke runs the handler bound to name. An unbound name yields an error
// whose text is surfaced verbatim to the script caller.
func (r *Registry) Invoke(name string, args []json.RawMessage) (any, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("Unknown: %s", name)
	}
	return handler(args)
}
