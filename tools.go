// ABOUTME: Build constraint file to pin tool dependencies in go.mod.
// ABOUTME: Keeps mockgen at the version the generated mocks were made with.

//go:build tools

package tools

import (
	_ "go.uber.org/mock/mockgen"
)
