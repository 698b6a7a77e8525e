//go:build linux || darwin

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
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// posixPath turns a channel name into the backing object's filesystem path
// under the "swiftchannel_<name>" naming convention. /dev/shm is used when
// available since it is typically tmpfs-backed and never touches a disk;
// os.TempDir is the fallback on systems without it.
func posixPath(name string) string {
	base := "swiftchannel_" + name
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return filepath.Join("/dev/shm", base)
	}
	return filepath.Join(os.TempDir(), base)
}

func platformOpenOrCreate(name string, ringSize uint64) (*Region, bool, error) {
	path := posixPath(name)
	size := totalRegionSize(ringSize)

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0600)
	created := err == nil
	if err != nil {
		if err != unix.EEXIST {
			return nil, false, fmt.Errorf("%w: open %s: %v", ErrSharedMemoryError, path, err)
		}
		fd, err = unix.Open(path, unix.O_RDWR, 0600)
		if err != nil {
			return nil, false, fmt.Errorf("%w: open %s: %v", ErrChannelNotFound, path, err)
		}
	}

	if created {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			unix.Close(fd)
			return nil, false, fmt.Errorf("%w: truncate %s: %v", ErrSharedMemoryError, path, err)
		}
	} else {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			unix.Close(fd)
			return nil, false, fmt.Errorf("%w: stat %s: %v", ErrSharedMemoryError, path, err)
		}
		if uint64(st.Size) < size {
			unix.Close(fd)
			return nil, false, fmt.Errorf("%w: %s is %d bytes, want at least %d", ErrInvalidMemoryLayout, path, st.Size, size)
		}
	}

	mem, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, false, fmt.Errorf("%w: mmap %s: %v", ErrMappingFailed, path, err)
	}

	region := &Region{
		mem:  mem,
		name: name,
		mapping: &mapping{
			close: func() error {
				munmapErr := unix.Munmap(mem)
				closeErr := unix.Close(fd)
				if munmapErr != nil {
					return fmt.Errorf("%w: munmap %s: %v", ErrSharedMemoryError, path, munmapErr)
				}
				if closeErr != nil {
					return fmt.Errorf("%w: close %s: %v", ErrSharedMemoryError, path, closeErr)
				}
				return nil
			},
		},
	}
	return region, created, nil
}

func platformOpenExisting(name string) (*Region, error) {
	path := posixPath(name)

	fd, err := unix.Open(path, unix.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrChannelNotFound, path, err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: stat %s: %v", ErrSharedMemoryError, path, err)
	}
	if st.Size < HeaderSize {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %s is only %d bytes", ErrInvalidMemoryLayout, path, st.Size)
	}

	mem, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrMappingFailed, path, err)
	}

	return &Region{
		mem:  mem,
		name: name,
		mapping: &mapping{
			close: func() error {
				munmapErr := unix.Munmap(mem)
				closeErr := unix.Close(fd)
				if munmapErr != nil {
					return fmt.Errorf("%w: munmap %s: %v", ErrSharedMemoryError, path, munmapErr)
				}
				if closeErr != nil {
					return fmt.Errorf("%w: close %s: %v", ErrSharedMemoryError, path, closeErr)
				}
				return nil
			},
		},
	}, nil
}

func platformRemove(name string) error {
	path := posixPath(name)
	if err := unix.Unlink(path); err != nil && err != unix.ENOENT {
		return fmt.Errorf("%w: unlink %s: %v", ErrSharedMemoryError, path, err)
	}
	return nil
}
