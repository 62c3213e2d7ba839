package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driving"
)

// Operating system identifiers.
const (
	osDarwin  = "darwin"
	osLinux   = "linux"
	osWindows = "windows"
)

// Built-in action names.
const (
	ActionPrint    = "print"
	ActionChecksum = "checksum"
	ActionPath     = "path"
	ActionOpen     = "open"
	ActionCopy     = "copy"
)

// Ensure ActionRegistry implements the interface.
var _ driving.ActionService = (*ActionRegistry)(nil)

// ActionRegistry maps names to actions run against local items.
// An item runs the action registered under its own name, or the default.
type ActionRegistry struct {
	engine        driving.SyncEngine
	defaultAction string

	mu      sync.RWMutex
	actions map[string]domain.Action
}

// NewActionRegistry creates an empty registry.
func NewActionRegistry(engine driving.SyncEngine, defaultAction string) *ActionRegistry {
	if defaultAction == "" {
		defaultAction = domain.DefaultActionName
	}
	return &ActionRegistry{
		engine:        engine,
		defaultAction: defaultAction,
		actions:       make(map[string]domain.Action),
	}
}

// NewDefaultActionRegistry creates a registry with the built-in actions.
func NewDefaultActionRegistry(engine driving.SyncEngine, defaultAction string) *ActionRegistry {
	r := NewActionRegistry(engine, defaultAction)
	_ = r.Register(ActionPrint, printAction)
	_ = r.Register(ActionChecksum, checksumAction)
	_ = r.Register(ActionPath, pathAction)
	_ = r.Register(ActionOpen, openAction)
	_ = r.Register(ActionCopy, copyAction)
	return r
}

// Register adds an action under name.
func (r *ActionRegistry) Register(name string, action domain.Action) error {
	if strings.TrimSpace(name) == "" || action == nil {
		return fmt.Errorf("%w: action name and func are required", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("action %s: %w", name, domain.ErrAlreadyExists)
	}
	r.actions[name] = action
	return nil
}

// Names returns registered action names, sorted.
func (r *ActionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the action registered for itemName, falling back to the default.
func (r *ActionRegistry) Resolve(itemName string) (string, domain.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if action, ok := r.actions[itemName]; ok {
		return itemName, action, nil
	}
	if action, ok := r.actions[r.defaultAction]; ok {
		return r.defaultAction, action, nil
	}
	return "", nil, fmt.Errorf("default action %s: %w", r.defaultAction, domain.ErrActionNotFound)
}

// Run executes an action on a locally present item.
// An empty actionName resolves the action from the item name.
func (r *ActionRegistry) Run(ctx context.Context, itemName, actionName string) (string, error) {
	item, ok := r.engine.Item(itemName)
	if !ok {
		return "", fmt.Errorf("item %s: %w", itemName, domain.ErrNotFound)
	}
	if !item.LocallyPresent {
		return "", fmt.Errorf("run %s: %w", itemName, domain.ErrNotLocal)
	}

	var action domain.Action
	if actionName == "" {
		var err error
		if actionName, action, err = r.Resolve(itemName); err != nil {
			return "", err
		}
	} else {
		r.mu.RLock()
		action = r.actions[actionName]
		r.mu.RUnlock()
		if action == nil {
			return "", fmt.Errorf("action %s: %w", actionName, domain.ErrActionNotFound)
		}
	}

	payload, err := r.engine.ReadPayload(itemName)
	if err != nil {
		return "", err
	}

	out, err := action(ctx, domain.ActionInput{
		Item:    item,
		Path:    r.engine.PayloadPath(itemName),
		Payload: payload,
	})
	if err != nil {
		return "", fmt.Errorf("action %s on %s: %w", actionName, itemName, err)
	}
	return out, nil
}

func printAction(_ context.Context, in domain.ActionInput) (string, error) {
	return string(in.Payload), nil
}

func checksumAction(_ context.Context, in domain.ActionInput) (string, error) {
	sum := sha256.Sum256(in.Payload)
	return fmt.Sprintf("%s  %s", hex.EncodeToString(sum[:]), in.Item.Name), nil
}

func pathAction(_ context.Context, in domain.ActionInput) (string, error) {
	return in.Path, nil
}

func openAction(_ context.Context, in domain.ActionInput) (string, error) {
	if err := openPath(in.Path); err != nil {
		return "", err
	}
	return "opened " + in.Path, nil
}

func copyAction(_ context.Context, in domain.ActionInput) (string, error) {
	if err := clipboard.WriteAll(string(in.Payload)); err != nil {
		return "", fmt.Errorf("copy %s: %w", in.Item.Name, err)
	}
	return fmt.Sprintf("copied %s (%d bytes)", in.Item.Name, len(in.Payload)), nil
}

// openPath opens a file in the default application.
func openPath(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case osDarwin:
		cmd = exec.Command("open", path)
	case osLinux:
		cmd = exec.Command("xdg-open", path)
	case osWindows:
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
