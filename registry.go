/*
 * Copyright 2025 QADataSwap Authors.
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
 */

package qadataswap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yutiansut/qadataswap/internal/arena"
)

// regionPrefix is applied to a channel name to derive its backing file name.
const regionPrefix = "qds_"

// Registry resolves channel names to backing shared memory regions and owns
// their create/attach/remove operations. It replaces ambient process-wide
// naming state with an explicit context: two registries with different
// directories denote disjoint channel namespaces.
type Registry struct {
	dir string
	log zerolog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDirectory overrides the directory holding the backing regions.
func WithDirectory(dir string) RegistryOption {
	return func(r *Registry) { r.dir = dir }
}

// WithLogger attaches a logger for channel lifecycle events. The default
// discards everything.
func WithLogger(log zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// NewRegistry builds a registry rooted at /dev/shm when available,
// otherwise the system temporary directory. The channel is volatile either
// way: regions vanish with the OS environment.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{dir: defaultRegionDir(), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// defaultRegionDir prefers tmpfs-backed /dev/shm for shared memory regions.
func defaultRegionDir() string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

// regionPath maps a channel name to its backing file path.
func (r *Registry) regionPath(name string) string {
	return filepath.Join(r.dir, regionPrefix+name)
}

// validateName rejects names that would escape the registry directory.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("channel name is empty")
	}
	if strings.ContainsAny(name, "/\\") || name != filepath.Base(name) {
		return fmt.Errorf("channel name %q contains path elements", name)
	}
	return nil
}

// Exists reports whether a region is registered under name.
func (r *Registry) Exists(name string) bool {
	if validateName(name) != nil {
		return false
	}
	_, err := os.Stat(r.regionPath(name))
	return err == nil
}

// Remove unlinks a channel's backing region without coordinating with any
// attached process. Intended for cleaning up after a crashed owner; calling
// it on a live channel leaves attached handles on undefined bytes.
func (r *Registry) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := os.Remove(r.regionPath(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	r.log.Debug().Str("channel", name).Msg("region removed")
	return nil
}

// writerConfig collects writer creation options.
type writerConfig struct {
	bufferCount  uint64
	writeTimeout time.Duration
	disown       bool
}

// WriterOption configures channel creation.
type WriterOption func(*writerConfig)

// WithBufferCount sets the number of slots the arena is partitioned into.
// The default is 3: up to three published-but-unread batches before the
// writer blocks.
func WithBufferCount(n int) WriterOption {
	return func(c *writerConfig) { c.bufferCount = uint64(n) }
}

// WithWriteTimeout bounds how long Write blocks under backpressure before
// returning ErrWriteTimeout. The default (zero) blocks indefinitely.
func WithWriteTimeout(d time.Duration) WriterOption {
	return func(c *writerConfig) { c.writeTimeout = d }
}

// WithoutOwnership makes the writer release only its local mapping on Close
// instead of destroying the OS-level region. By default the first writer
// owns destruction.
func WithoutOwnership() WriterOption {
	return func(c *writerConfig) { c.disown = true }
}

// CreateWriter creates the named channel and returns its writer handle. The
// arena and its two counting signals are allocated here, exactly once per
// channel name; a colliding or incompatible existing region fails with
// ErrCreationFailed.
func (r *Registry) CreateWriter(name string, capacityBytes uint64, opts ...WriterOption) (*Writer, error) {
	if err := validateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}

	cfg := writerConfig{bufferCount: arena.DefaultSlotCount}
	for _, opt := range opts {
		opt(&cfg)
	}
	if capacityBytes == 0 {
		capacityBytes = arena.DefaultCapacity
	}

	id := uuid.New()
	a, err := arena.Create(r.regionPath(name), capacityBytes, cfg.bufferCount, [16]byte(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}

	r.log.Debug().
		Str("channel", name).
		Str("instance_id", id.String()).
		Uint64("capacity", capacityBytes).
		Uint64("buffer_count", cfg.bufferCount).
		Uint64("slot_size", a.SlotSize()).
		Msg("channel created")

	return &Writer{
		a:            a,
		name:         name,
		owner:        !cfg.disown,
		writeTimeout: cfg.writeTimeout,
		log:          r.log,
	}, nil
}

// CreateReader attaches to the named channel and returns its reader handle.
// The region is opened, never created or reinitialized; a missing or
// incompatible region fails with ErrAttachFailed. Readers never own
// destruction.
func (r *Registry) CreateReader(name string) (*Reader, error) {
	if err := validateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAttachFailed, err)
	}

	a, err := arena.Attach(r.regionPath(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAttachFailed, err)
	}

	r.log.Debug().
		Str("channel", name).
		Str("instance_id", uuid.UUID(a.Header().InstanceID()).String()).
		Msg("channel attached")

	return &Reader{a: a, name: name, log: r.log}, nil
}

// CreateStreamWriter creates the named channel for chunked streaming.
func (r *Registry) CreateStreamWriter(name string, capacityBytes uint64, opts ...WriterOption) (*StreamWriter, error) {
	w, err := r.CreateWriter(name, capacityBytes, opts...)
	if err != nil {
		return nil, err
	}
	return &StreamWriter{w: w}, nil
}

// CreateStreamReader attaches to the named channel for chunked streaming.
func (r *Registry) CreateStreamReader(name string) (*StreamReader, error) {
	rd, err := r.CreateReader(name)
	if err != nil {
		return nil, err
	}
	return &StreamReader{r: rd}, nil
}

// defaultRegistry backs the package-level convenience constructors.
var defaultRegistry = NewRegistry()

// CreateWriter creates a channel in the default registry.
func CreateWriter(name string, capacityBytes uint64, opts ...WriterOption) (*Writer, error) {
	return defaultRegistry.CreateWriter(name, capacityBytes, opts...)
}

// CreateReader attaches to a channel in the default registry.
func CreateReader(name string) (*Reader, error) {
	return defaultRegistry.CreateReader(name)
}

// CreateStreamWriter creates a streaming channel in the default registry.
func CreateStreamWriter(name string, capacityBytes uint64, opts ...WriterOption) (*StreamWriter, error) {
	return defaultRegistry.CreateStreamWriter(name, capacityBytes, opts...)
}

// CreateStreamReader attaches to a streaming channel in the default registry.
func CreateStreamReader(name string) (*StreamReader, error) {
	return defaultRegistry.CreateStreamReader(name)
}
