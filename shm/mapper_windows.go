//go:build windows

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

import (
	"fmt"
	"reflect"
	"syscall"
	"unsafe"
)

// This drives CreateFileMapping/MapViewOfFile straight off the standard
// library's syscall package rather than golang.org/x/sys/windows; see
// DESIGN.md.

// windowsObjectName turns a channel name into the Local\ namespace object
// name used for the underlying file mapping.
func windowsObjectName(name string) string {
	return `Local\SwiftChannel_` + name
}

func platformOpenOrCreate(name string, ringSize uint64) (*Region, bool, error) {
	objName := windowsObjectName(name)
	size := totalRegionSize(ringSize)

	u16, err := syscall.UTF16PtrFromString(objName)
	if err != nil {
		return nil, false, fmt.Errorf("%w: invalid channel name %q: %v", ErrInvalidOperation, name, err)
	}

	h, err := syscall.CreateFileMapping(
		syscall.InvalidHandle,
		nil,
		syscall.PAGE_READWRITE,
		uint32(size>>32),
		uint32(size&0xffffffff),
		u16,
	)
	if h == 0 || err != nil {
		return nil, false, fmt.Errorf("%w: CreateFileMapping %s: %v", ErrSharedMemoryError, objName, err)
	}
	// ERROR_ALREADY_EXISTS (183) means another process's mapping object
	// backs this name; we attached to it rather than creating it.
	created := err != syscall.ERROR_ALREADY_EXISTS

	addr, err := syscall.MapViewOfFile(h, syscall.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if addr == 0 || err != nil {
		syscall.CloseHandle(h)
		return nil, false, fmt.Errorf("%w: MapViewOfFile %s: %v", ErrMappingFailed, objName, err)
	}

	var mem []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&mem))
	sh.Data = addr
	sh.Len = int(size)
	sh.Cap = int(size)

	region := &Region{
		mem:  mem,
		name: name,
		mapping: &mapping{
			close: func() error {
				unmapErr := syscall.UnmapViewOfFile(addr)
				closeErr := syscall.CloseHandle(h)
				if unmapErr != nil {
					return fmt.Errorf("%w: UnmapViewOfFile %s: %v", ErrSharedMemoryError, objName, unmapErr)
				}
				if closeErr != nil {
					return fmt.Errorf("%w: CloseHandle %s: %v", ErrSharedMemoryError, objName, closeErr)
				}
				return nil
			},
		},
	}
	return region, created, nil
}

func platformOpenExisting(name string) (*Region, error) {
	objName := windowsObjectName(name)

	u16, err := syscall.UTF16PtrFromString(objName)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid channel name %q: %v", ErrInvalidOperation, name, err)
	}

	h, err := syscall.OpenFileMapping(syscall.FILE_MAP_WRITE, 0, u16)
	if h == 0 || err != nil {
		return nil, fmt.Errorf("%w: OpenFileMapping %s: %v", ErrChannelNotFound, objName, err)
	}

	addr, err := syscall.MapViewOfFile(h, syscall.FILE_MAP_WRITE, 0, 0, 0)
	if addr == 0 || err != nil {
		syscall.CloseHandle(h)
		return nil, fmt.Errorf("%w: MapViewOfFile %s: %v", ErrMappingFailed, objName, err)
	}

	// The mapping's size is whatever the creator specified; without a way
	// to query it back from a view alone, fall back to the header plus the
	// default ring size. That matches only channels whose ring is
	// DefaultRingSize; for any other ring size the slice length differs
	// from the mapped view.
	size := totalRegionSize(DefaultRingSize)
	var mem []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&mem))
	sh.Data = addr
	sh.Len = int(size)
	sh.Cap = int(size)

	return &Region{
		mem:  mem,
		name: name,
		mapping: &mapping{
			close: func() error {
				unmapErr := syscall.UnmapViewOfFile(addr)
				closeErr := syscall.CloseHandle(h)
				if unmapErr != nil {
					return fmt.Errorf("%w: UnmapViewOfFile %s: %v", ErrSharedMemoryError, objName, unmapErr)
				}
				if closeErr != nil {
					return fmt.Errorf("%w: CloseHandle %s: %v", ErrSharedMemoryError, objName, closeErr)
				}
				return nil
			},
		},
	}, nil
}

// platformRemove is a no-op on Windows: a named file mapping backed by the
// system paging file (no backing file, as used here) is destroyed
// automatically once its last handle closes, so there is nothing to unlink.
func platformRemove(name string) error {
	return nil
}
