package checkout

import "github.com/conduitci/conduit/pkg/protocol"

// ActionFactory creates checkout actions.
type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "checkout"
}

func (*ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}
