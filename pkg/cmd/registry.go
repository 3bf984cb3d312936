// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/conduitci/conduit/pkg/actions/checkout"
	"github.com/conduitci/conduit/pkg/actions/httprequest"
	logaction "github.com/conduitci/conduit/pkg/actions/log"
	"github.com/conduitci/conduit/pkg/actions/publish"
	"github.com/conduitci/conduit/pkg/actions/shell"
	"github.com/conduitci/conduit/pkg/registry"
	"github.com/conduitci/conduit/pkg/sources/queue"
	"github.com/conduitci/conduit/pkg/sources/schedule"
	"github.com/conduitci/conduit/pkg/sources/webhook"
)

// NewRegistry builds the registry with the native actions and sources, plus
// any external plugins found under pluginsPath (empty skips plugin loading).
func NewRegistry(logger *slog.Logger, pluginsPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(logger)

	registerNativeActions(reg)
	registerNativeSources(reg)

	if pluginsPath != "" {
		if err := registerPlugins(reg, pluginsPath); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func registerNativeActions(reg *registry.Registry) {
	reg.RegisterAction(shell.NewActionFactory())
	reg.RegisterAction(checkout.NewActionFactory())
	reg.RegisterAction(publish.NewActionFactory())
	reg.RegisterAction(httprequest.NewActionFactory())
	reg.RegisterAction(logaction.NewActionFactory())
}

func registerNativeSources(reg *registry.Registry) {
	reg.RegisterSource(webhook.NewSourceFactory())
	reg.RegisterSource(schedule.NewSourceFactory())
	reg.RegisterSource(queue.NewSourceFactory())
}

func registerPlugins(reg *registry.Registry, pluginsPath string) error {
	actionPlugins, err := reg.LoadActionPlugins(pluginsPath)
	if err != nil {
		return fmt.Errorf("failed to load action plugins: %w", err)
	}

	for _, plugin := range actionPlugins {
		reg.RegisterAction(plugin)
	}

	sourcePlugins, err := reg.LoadSourcePlugins(pluginsPath)
	if err != nil {
		return fmt.Errorf("failed to load source plugins: %w", err)
	}

	for _, plugin := range sourcePlugins {
		reg.RegisterSource(plugin)
	}

	return nil
}
