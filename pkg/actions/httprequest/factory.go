package httprequest

import "github.com/conduitci/conduit/pkg/protocol"

// ActionFactory creates http_request actions.
type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "http_request"
}

func (*ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}
