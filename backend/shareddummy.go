package backend

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/rob-gra/go-deviceaccess/catalogue"
	"github.com/rob-gra/go-deviceaccess/deverr"
)

// SharedDummyBackend is a DummyBackend whose bars live in a named POSIX
// shared-memory segment (spec.md §5, §6): two independent Device handles
// — even in different processes — observe the same bytes. Segment layout
// is a little-endian int32 use-counter header followed by
// sharedDummyBarCount fixed-size bars.
//
// Grounded on golang.org/x/sys/unix appearing across the pack's
// Linux-facing code for direct syscall-level control (no higher-level
// shared-memory library exists in the pack); Mmap/Flock are the
// idiomatic Go way to reach that surface.
type SharedDummyBackend struct {
	segmentName string
	barSize     int

	mu   sync.Mutex
	open bool
	file *os.File
	data []byte // mmap'd: [4]byte counter header, then barCount*barSize bytes
	cat  *catalogue.Catalogue
}

const (
	sharedDummyBarCount   = 4
	sharedDummyHeaderSize = 4 // one int32 use-counter
)

func init() {
	Register("shareddummy", func(u URI) (Backend, error) {
		mapFile := u.MapFile
		if mapFile == "" && len(u.Params) > 0 {
			mapFile = u.Params[0]
		}
		return NewSharedDummyBackend(mapFile, 4096), nil
	})
}

// SegmentName returns the named segment this backend maps, matching
// spec.md §6's "ChimeraTK_SharedDummy_<mapHash>_<instanceHash>" scheme —
// here mapHash is derived from mapFile's content path and instanceHash
// from the requested bar size, so backends opened with matching
// parameters share a segment while mismatched ones don't collide.
func SegmentName(mapFile string, barSize int) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(mapFile))
	mapHash := h.Sum64()
	return fmt.Sprintf("ChimeraTK_SharedDummy_%x_%x", mapHash, barSize)
}

// NewSharedDummyBackend returns a closed SharedDummyBackend. mapFile
// contributes to the shared segment's name (spec.md §6) but, like
// DummyBackend, is not itself parsed here; install a catalogue via
// SetCatalogue once loaded by the mapfile package.
func NewSharedDummyBackend(mapFile string, barSize int) *SharedDummyBackend {
	return &SharedDummyBackend{
		segmentName: SegmentName(mapFile, barSize),
		barSize:     barSize,
		cat:         catalogue.New(),
	}
}

// SetCatalogue installs the RegisterCatalogue this backend reports.
func (b *SharedDummyBackend) SetCatalogue(c *catalogue.Catalogue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cat = c
}

func (b *SharedDummyBackend) segmentSize() int64 {
	return int64(sharedDummyHeaderSize + sharedDummyBarCount*b.barSize)
}

func (b *SharedDummyBackend) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.open {
		return nil
	}

	path := "/dev/shm/" + b.segmentName
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return deverr.Wrap(deverr.IOError, err, "open shared dummy segment %s", path)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return deverr.Wrap(deverr.IOError, err, "flock shared dummy segment %s", path)
	}
	st, err := f.Stat()
	if err != nil {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		return deverr.Wrap(deverr.IOError, err, "stat shared dummy segment %s", path)
	}
	if st.Size() < b.segmentSize() {
		if err := f.Truncate(b.segmentSize()); err != nil {
			unix.Flock(int(f.Fd()), unix.LOCK_UN)
			f.Close()
			return deverr.Wrap(deverr.IOError, err, "truncate shared dummy segment %s", path)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(b.segmentSize()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		return deverr.Wrap(deverr.IOError, err, "mmap shared dummy segment %s", path)
	}

	counter := binary.LittleEndian.Uint32(data[0:4])
	binary.LittleEndian.PutUint32(data[0:4], counter+1)

	unix.Flock(int(f.Fd()), unix.LOCK_UN)

	b.file = f
	b.data = data
	b.open = true
	return nil
}

// Close detaches from the segment, decrementing the use-counter; the last
// detaching process removes the backing file (spec.md §6: "removed when
// the last user detaches").
func (b *SharedDummyBackend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil
	}
	b.open = false

	if err := unix.Flock(int(b.file.Fd()), unix.LOCK_EX); err != nil {
		return deverr.Wrap(deverr.IOError, err, "flock shared dummy segment on close")
	}
	counter := binary.LittleEndian.Uint32(b.data[0:4])
	remove := counter <= 1
	if counter > 0 {
		binary.LittleEndian.PutUint32(b.data[0:4], counter-1)
	}
	unix.Flock(int(b.file.Fd()), unix.LOCK_UN)

	path := b.file.Name()
	var causes []error
	if err := unix.Munmap(b.data); err != nil {
		causes = append(causes, deverr.Wrap(deverr.IOError, err, "munmap shared dummy segment %s", path))
	}
	if err := b.file.Close(); err != nil {
		causes = append(causes, deverr.Wrap(deverr.IOError, err, "close shared dummy segment file %s", path))
	}
	b.data = nil
	b.file = nil
	if remove {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			causes = append(causes, deverr.Wrap(deverr.IOError, err, "remove shared dummy segment %s", path))
		}
	}
	return deverr.Append(causes...)
}

func (b *SharedDummyBackend) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *SharedDummyBackend) barOffset(bar uint8) (int, error) {
	if int(bar) >= sharedDummyBarCount {
		return 0, deverr.New(deverr.WrongParameter, "bar %d out of range [0,%d)", bar, sharedDummyBarCount)
	}
	return sharedDummyHeaderSize + int(bar)*b.barSize, nil
}

func (b *SharedDummyBackend) Read(ctx context.Context, bar uint8, address uint32, dst []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return deverr.New(deverr.NotOpened, "shared dummy backend is not open")
	}
	off, err := b.barOffset(bar)
	if err != nil {
		return err
	}
	if int(address)+len(dst) > b.barSize {
		return deverr.New(deverr.WrongParameter, "read [%d,%d) exceeds bar size %d", address, int(address)+len(dst), b.barSize)
	}
	unix.Flock(int(b.file.Fd()), unix.LOCK_SH)
	copy(dst, b.data[off+int(address):])
	unix.Flock(int(b.file.Fd()), unix.LOCK_UN)
	return nil
}

func (b *SharedDummyBackend) Write(ctx context.Context, bar uint8, address uint32, src []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return deverr.New(deverr.NotOpened, "shared dummy backend is not open")
	}
	off, err := b.barOffset(bar)
	if err != nil {
		return err
	}
	if int(address)+len(src) > b.barSize {
		return deverr.New(deverr.WrongParameter, "write [%d,%d) exceeds bar size %d", address, int(address)+len(src), b.barSize)
	}
	unix.Flock(int(b.file.Fd()), unix.LOCK_EX)
	copy(b.data[off+int(address):], src)
	unix.Flock(int(b.file.Fd()), unix.LOCK_UN)
	return nil
}

func (b *SharedDummyBackend) RegisterCatalogue() *catalogue.Catalogue {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cat
}

func (b *SharedDummyBackend) ReadDeviceInfo(ctx context.Context) (string, error) {
	return "SharedDummyBackend(" + b.segmentName + ")", nil
}
