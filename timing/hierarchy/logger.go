package hierarchy

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/akita/v4/sim"
)

// DefaultLogPath is where the command line tool writes the access log.
const DefaultLogPath = "cacheLog.txt"

// AccessKind identifies the operation that produced an access event.
type AccessKind int

// Logged access kinds. Instruction writes go straight to memory and are not
// logged.
const (
	ReadInstruction AccessKind = iota
	ReadData32
	ReadData64
	WriteData32
	WriteData64
)

var accessKindNames = map[AccessKind]string{
	ReadInstruction: "READI",
	ReadData32:      "READ32",
	ReadData64:      "READ64",
	WriteData32:     "WRITE32",
	WriteData64:     "WRITE64",
}

func (k AccessKind) String() string {
	if name, ok := accessKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("AccessKind(%d)", int(k))
}

// IsWrite reports whether the kind is a data write.
func (k AccessKind) IsWrite() bool {
	return k == WriteData32 || k == WriteData64
}

// HitLevel is the level of the hierarchy that satisfied an access.
type HitLevel int

// Hit levels, fastest first.
const (
	LevelL1     HitLevel = 1
	LevelL2     HitLevel = 2
	LevelMemory HitLevel = 3
)

func (l HitLevel) String() string {
	switch l {
	case LevelL1:
		return "L1"
	case LevelL2:
		return "L2"
	case LevelMemory:
		return "Memory"
	default:
		return fmt.Sprintf("HitLevel(%d)", int(l))
	}
}

// AccessEvent is the hook item delivered at HookPosAccess.
type AccessEvent struct {
	Kind  AccessKind
	Addr  uint64
	Level HitLevel
}

// HookPosAccess is triggered once per logged access, after the access
// completes.
var HookPosAccess = &sim.HookPos{Name: "MemAccess"}

// AccessLogger records the outcome of every access. It is a side channel and
// never influences the hierarchy.
type AccessLogger interface {
	Record(kind AccessKind, addr uint64, level HitLevel)
}

// TextLogger writes one line per access: kind, hexadecimal address and hit
// level, separated by tabs.
type TextLogger struct {
	w      *bufio.Writer
	closer io.Closer
	err    error
}

// NewTextLogger creates a logger writing to w. Output is buffered until Flush
// or Close.
func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: bufio.NewWriter(w)}
}

// NewFileLogger creates (or truncates) the file at path and logs into it.
func NewFileLogger(path string) (*TextLogger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create access log: %w", err)
	}

	l := NewTextLogger(f)
	l.closer = f

	return l, nil
}

// Record appends one event. The first write error is kept and reported by
// Err, Flush and Close.
func (l *TextLogger) Record(kind AccessKind, addr uint64, level HitLevel) {
	if l.err != nil {
		return
	}

	_, l.err = fmt.Fprintf(l.w, "%s\t0x%x\t%d\n", kind, addr, int(level))
}

// Err returns the first error met while writing.
func (l *TextLogger) Err() error {
	return l.err
}

// Flush pushes buffered lines to the underlying writer.
func (l *TextLogger) Flush() error {
	if l.err != nil {
		return l.err
	}

	l.err = l.w.Flush()
	return l.err
}

// Close flushes the log and closes the file opened by NewFileLogger.
func (l *TextLogger) Close() error {
	err := l.Flush()

	if l.closer != nil {
		if cerr := l.closer.Close(); err == nil {
			err = cerr
		}
		l.closer = nil
	}

	return err
}
