package log

import "github.com/conduitci/conduit/pkg/protocol"

// ActionFactory creates log actions.
type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "log"
}

func (*ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}
