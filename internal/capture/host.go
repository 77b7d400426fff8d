// Package capture describes what the engine needs from the 3D host
// application and provides a file-backed stand-in host.
package capture

import "context"

type ViewportCapturer interface {
	// CaptureActive renders the active viewport to PNG at w x h.
	CaptureActive(ctx context.Context, w, h int, transparent bool) ([]byte, error)
	// CaptureNamed renders a saved named view to PNG at w x h.
	CaptureNamed(ctx context.Context, name string, w, h int, transparent bool) ([]byte, error)
	// ViewportSize is the current on-screen size of the active viewport.
	ViewportSize(ctx context.Context) (int, int, error)
}

type NamedViewLister interface {
	NamedViews(ctx context.Context) ([]string, error)
}

type SceneLocator interface {
	// ActiveScenePath returns "" when the scene has never been saved.
	ActiveScenePath(ctx context.Context) (string, error)
}

type FolderOpener interface {
	Reveal(ctx context.Context, path string) error
}

// Host is everything the dispatcher needs from the host application.
type Host interface {
	ViewportCapturer
	NamedViewLister
	SceneLocator
	FolderOpener
}
