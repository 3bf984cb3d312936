// Package registry holds the factories for step actions and event sources.
package registry

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"strings"

	"github.com/conduitci/conduit/pkg/protocol"
)

type Registry struct {
	logger          *slog.Logger
	actionFactories map[string]protocol.ActionFactory
	sourceFactories map[string]protocol.SourceFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:          log,
		actionFactories: make(map[string]protocol.ActionFactory),
		sourceFactories: make(map[string]protocol.SourceFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

func (r *Registry) RegisterSource(factory protocol.SourceFactory) {
	r.sourceFactories[factory.ID()] = factory
}

func (r *Registry) CreateAction(actionID string, config map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionID]
	if !ok {
		return nil, fmt.Errorf("action %q not registered", actionID)
	}

	return factory.Create(config)
}

func (r *Registry) CreateSource(sourceID string, config map[string]any) (protocol.Source, error) {
	factory, ok := r.sourceFactories[sourceID]
	if !ok {
		return nil, fmt.Errorf("source %q not registered", sourceID)
	}

	return factory.Create(config, r.logger)
}

// AvailableActions lists the registered action identifiers.
func (r *Registry) AvailableActions() []string {
	ids := make([]string, 0, len(r.actionFactories))
	for id := range r.actionFactories {
		ids = append(ids, id)
	}

	return ids
}

// LoadActionPlugins loads external action factories from <pluginsPath>/actions.
func (r *Registry) LoadActionPlugins(pluginsPath string) ([]protocol.ActionFactory, error) {
	return loadPlugin[protocol.ActionFactory](r.logger, pluginsPath, "Action")
}

// LoadSourcePlugins loads external source factories from <pluginsPath>/sources.
func (r *Registry) LoadSourcePlugins(pluginsPath string) ([]protocol.SourceFactory, error) {
	return loadPlugin[protocol.SourceFactory](r.logger, pluginsPath, "Source")
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := pluginsPath + "/" + strings.ToLower(symbolName) + "s"
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "**/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s is missing symbol %s: %w", p, symbolName, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s symbol %s has unexpected type", p, symbolName)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
