package mocks

import "context"

type SceneLocatorMock struct {
	ActiveScenePathFunc func(ctx context.Context) (string, error)
}

func (m *SceneLocatorMock) ActiveScenePath(ctx context.Context) (string, error) {
	if m.ActiveScenePathFunc != nil {
		return m.ActiveScenePathFunc(ctx)
	}
	return "", nil
}
