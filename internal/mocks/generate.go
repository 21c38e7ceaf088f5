// Package mocks provides mock implementations of the session ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The go:generate directives live next to the interfaces in internal/ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/ports
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockKeyValueStore(ctrl)
//	store.EXPECT().SetMany(gomock.Any(), gomock.Any()).Return(nil)
package mocks
