package main

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"airender/internal/bridge"
	"airender/internal/engine"
	"airender/internal/models"
	"airender/internal/services"
)

// App is the application context object bound to the web view.
type App struct {
	ctx       context.Context
	engine    *engine.Engine
	transport *bridge.WailsTransport
	unlisten  func()
}

// NewApp creates a new App application struct
func NewApp(e *engine.Engine) *App {
	return &App{engine: e, transport: bridge.NewWailsTransport()}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.engine.Bridge.Attach(ctx, a.transport)
	a.unlisten = a.transport.Listen(ctx,
		func(env bridge.Envelope) { a.engine.Handle(ctx, env) },
		a.engine.Bridge.MarkReady,
		func(err error) {
			runtime.LogWarning(ctx, fmt.Sprintf("dropping malformed command: %v", err))
			a.engine.Bridge.Send(bridge.Error("Malformed command", err.Error()))
		},
	)
	a.engine.Start(ctx)
	runtime.LogInfo(ctx, "render engine started")
}

// domReady marks the bridge ready once the page has loaded. The page may
// also emit the ready event itself after it has subscribed.
func (a *App) domReady(ctx context.Context) {
	a.engine.Bridge.MarkReady()
}

// shutdown is called when the app is closing. Clean up resources here.
func (a *App) shutdown(ctx context.Context) {
	if a.unlisten != nil {
		a.unlisten()
	}
	if err := a.engine.Close(); err != nil {
		runtime.LogError(ctx, fmt.Sprintf("failed to close engine: %v", err))
	} else {
		runtime.LogInfo(ctx, "engine closed")
	}
}

// HandleCommand accepts a JSON command envelope from the frontend.
func (a *App) HandleCommand(raw string) error {
	env, err := bridge.DecodeEnvelope(raw)
	if err != nil {
		return err
	}
	a.engine.Handle(a.ctx, env)
	return nil
}

// SelectDirectory opens a native directory picker dialog
func (a *App) SelectDirectory() (string, error) {
	return runtime.OpenDirectoryDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select Output Folder",
	})
}

// RecentRuns returns the latest generation-run log entries.
func (a *App) RecentRuns(limit int) ([]models.GenerationRun, error) {
	runLog := a.engine.Services.RunLog
	if runLog == nil {
		return nil, fmt.Errorf("generation-run log not available")
	}
	return runLog.Recent(a.ctx, limit)
}

// StoreApiKey saves a credential for "gemini" or "vertex" in the OS keyring.
func (a *App) StoreApiKey(provider, apiKey string) error {
	if provider != services.VaultGemini && provider != services.VaultVertex {
		return fmt.Errorf("unknown credential %q", provider)
	}
	if err := a.engine.Services.Keyring.StoreApiKey(provider, apiKey); err != nil {
		runtime.LogError(a.ctx, fmt.Sprintf("failed to store api key: %v", err))
		return err
	}
	return nil
}

// DeleteApiKey removes a stored credential.
func (a *App) DeleteApiKey(provider string) error {
	return a.engine.Services.Keyring.DeleteApiKey(provider)
}

// ListApiKeys reports which credentials are stored, without their values.
func (a *App) ListApiKeys() ([]map[string]string, error) {
	return a.engine.Services.Keyring.ListApiKeys()
}
