package publish

import "github.com/conduitci/conduit/pkg/protocol"

// ActionFactory creates publish actions.
type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "publish"
}

func (*ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}
