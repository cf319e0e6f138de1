// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrEngineStopped   = errors.New("engine stopped")
	ErrNoMixConfig     = errors.New("source without mix config")
	ErrUnknownEncoding = errors.New("unknown audio encoding")
)

// AssetNotFoundError is returned if a referenced audio file can not be
// located or decoded.
type AssetNotFoundError struct {
	Name string
	File string
	Err  error
}

func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("asset %q: file %q: %v", e.Name, e.File, e.Err)
}

func (e *AssetNotFoundError) Unwrap() error { return e.Err }
func (e *AssetNotFoundError) Cause() error { return e.Err }

// DuplicateAssetError is returned when a name is registered twice.
type DuplicateAssetError struct {
	Name string
}

func (e *DuplicateAssetError) Error() string {
	return fmt.Sprintf("asset %q already registered", e.Name)
}

// EngineStartError wraps failures of the audio output and of session setup.
type EngineStartError struct {
	Err error
}

func (e *EngineStartError) Error() string {
	return fmt.Sprintf("engine start: %v", e.Err)
}

func (e *EngineStartError) Unwrap() error { return e.Err }
func (e *EngineStartError) Cause() error { return e.Err }
