/*
NAME
  errors.go

DESCRIPTION
  errors.go enumerates the sentinel error kinds the container codec can
  report, and the error callback type used to surface them alongside the
  library's own return status.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hx

import "github.com/pkg/errors"

// Sentinel error kinds, per the container codec's error handling design.
// Failure paths return one of these, possibly wrapped with errors.Wrap for
// additional context; callers should use errors.Is against these values
// rather than matching message text. The exceptions are the contract
// assertions on a non-zero reserved index field and on a non-zero HXG
// WavResData default cuuid under MULTIPLE, which return plain formatted
// errors.
var (
	ErrInvalidIndexHeader    = errors.New("hx: invalid index header")
	ErrInvalidIndexType      = errors.New("hx: invalid index type")
	ErrEmptyFile             = errors.New("hx: file contains no entries")
	ErrUnknownClassName      = errors.New("hx: unknown class name")
	ErrClassMismatch         = errors.New("hx: index class does not match body class")
	ErrCuuidMismatch         = errors.New("hx: index cuuid does not match body cuuid")
	ErrUnsupportedVersion    = errors.New("hx: unsupported container version")
	ErrCallbackFailure       = errors.New("hx: read/write callback failed")
	ErrStreamOverrun         = errors.New("hx: stream overrun")
	ErrInvalidWaveHeader     = errors.New("hx: invalid wave format header")
	ErrUnsupportedConversion = errors.New("hx: unsupported audio conversion")
	ErrCorruptExtraWaveData  = errors.New("hx: corrupt trailing wave data")
	ErrDuplicateCUUID        = errors.New("hx: duplicate cuuid in container")
)

// ErrorCallback is invoked with a formatted, human-readable message
// whenever an operation fails. It is a notification only; it never
// returns a value that can abort the operation in progress.
type ErrorCallback func(message string)
