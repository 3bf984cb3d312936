package shell

import "github.com/conduitci/conduit/pkg/protocol"

// ActionFactory creates shell actions.
type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "shell"
}

func (*ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}
