/*
 *
 * Copyright 2025 SwiftChannel authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package shm

import "errors"

// Error taxonomy. Every operation that can fail returns one of these
// sentinels, possibly wrapped with additional context via fmt.Errorf's %w.
// Callers should use errors.Is against these values, not string matching.
var (
	ErrChannelNotFound      = errors.New("shm: channel not found")
	ErrChannelAlreadyExists = errors.New("shm: channel already exists")
	ErrChannelFull          = errors.New("shm: channel full")
	ErrChannelClosed        = errors.New("shm: channel closed")
	ErrMessageTooLarge      = errors.New("shm: message too large")
	ErrMessageCorrupted     = errors.New("shm: message corrupted")
	ErrChecksumMismatch     = errors.New("shm: checksum mismatch")
	ErrOutOfMemory          = errors.New("shm: out of memory")
	ErrSharedMemoryError    = errors.New("shm: shared memory error")
	ErrMappingFailed        = errors.New("shm: mapping failed")
	ErrInvalidMemoryLayout  = errors.New("shm: invalid memory layout")
	ErrVersionMismatch      = errors.New("shm: version mismatch")
	ErrPermissionDenied     = errors.New("shm: permission denied")
	ErrResourceBusy         = errors.New("shm: resource busy")
	ErrSystemError          = errors.New("shm: system error")
	ErrInvalidOperation     = errors.New("shm: invalid operation")

	// ErrBufferTooSmall is returned by the size-negotiation path (PollInto)
	// when the caller's buffer is smaller than the next frame's payload.
	// The read cursor is left unchanged so a retry with a larger buffer
	// sees the same frame again.
	ErrBufferTooSmall = errors.New("shm: buffer too small")
)

// Code is the stable numeric form of the error taxonomy, for callers (the
// inspector CLI, diagnostics) that want the failure kind as data rather than
// an error value to compare with errors.Is.
type Code int

const (
	CodeSuccess Code = iota
	CodeChannelNotFound
	CodeChannelAlreadyExists
	CodeChannelFull
	CodeChannelClosed
	CodeMessageTooLarge
	CodeMessageCorrupted
	CodeChecksumMismatch
	CodeOutOfMemory
	CodeSharedMemoryError
	CodeMappingFailed
	CodeInvalidMemoryLayout
	CodeVersionMismatch
	CodePermissionDenied
	CodeResourceBusy
	CodeSystemError
	CodeInvalidOperation
	CodeBufferTooSmall
	CodeUnknown
)

var codeTable = []struct {
	err  error
	code Code
}{
	{ErrChannelNotFound, CodeChannelNotFound},
	{ErrChannelAlreadyExists, CodeChannelAlreadyExists},
	{ErrChannelFull, CodeChannelFull},
	{ErrChannelClosed, CodeChannelClosed},
	{ErrMessageTooLarge, CodeMessageTooLarge},
	{ErrMessageCorrupted, CodeMessageCorrupted},
	{ErrChecksumMismatch, CodeChecksumMismatch},
	{ErrOutOfMemory, CodeOutOfMemory},
	{ErrSharedMemoryError, CodeSharedMemoryError},
	{ErrMappingFailed, CodeMappingFailed},
	{ErrInvalidMemoryLayout, CodeInvalidMemoryLayout},
	{ErrVersionMismatch, CodeVersionMismatch},
	{ErrPermissionDenied, CodePermissionDenied},
	{ErrResourceBusy, CodeResourceBusy},
	{ErrSystemError, CodeSystemError},
	{ErrInvalidOperation, CodeInvalidOperation},
	{ErrBufferTooSmall, CodeBufferTooSmall},
}

// CodeOf maps err back to its Code, walking the wrap chain with errors.Is.
// Returns CodeSuccess for a nil error and CodeUnknown for anything that
// doesn't match a taxonomy sentinel.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	for _, e := range codeTable {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return CodeUnknown
}

func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeChannelNotFound:
		return "channel not found"
	case CodeChannelAlreadyExists:
		return "channel already exists"
	case CodeChannelFull:
		return "channel full"
	case CodeChannelClosed:
		return "channel closed"
	case CodeMessageTooLarge:
		return "message too large"
	case CodeMessageCorrupted:
		return "message corrupted"
	case CodeChecksumMismatch:
		return "checksum mismatch"
	case CodeOutOfMemory:
		return "out of memory"
	case CodeSharedMemoryError:
		return "shared memory error"
	case CodeMappingFailed:
		return "mapping failed"
	case CodeInvalidMemoryLayout:
		return "invalid memory layout"
	case CodeVersionMismatch:
		return "version mismatch"
	case CodePermissionDenied:
		return "permission denied"
	case CodeResourceBusy:
		return "resource busy"
	case CodeSystemError:
		return "system error"
	case CodeInvalidOperation:
		return "invalid operation"
	case CodeBufferTooSmall:
		return "buffer too small"
	default:
		return "unknown"
	}
}
