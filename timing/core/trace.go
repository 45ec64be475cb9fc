package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Op is the kind of a traced memory access.
type Op int

// Trace operations, as written in trace files.
const (
	OpReadInstruction32  Op = iota // ri
	OpReadData32                   // rd32
	OpReadData64                   // rd64
	OpWriteInstruction32           // wi32
	OpWriteData32                  // wd32
	OpWriteData64                  // wd64
)

var opNames = []string{"ri", "rd32", "rd64", "wi32", "wd32", "wd64"}

func (o Op) String() string {
	if int(o) >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// IsWrite reports whether the operation carries a value to store.
func (o Op) IsWrite() bool {
	return o == OpWriteInstruction32 || o == OpWriteData32 || o == OpWriteData64
}

// Size returns the number of bytes the operation moves.
func (o Op) Size() int {
	if o == OpReadData64 || o == OpWriteData64 {
		return 8
	}
	return 4
}

// Access is one line of a trace.
type Access struct {
	Op    Op
	Addr  uint64
	Value uint64
	// Line is the trace line the access came from, or 0.
	Line int
}

func (a Access) String() string {
	if a.Op.IsWrite() {
		return fmt.Sprintf("%s 0x%x 0x%x", a.Op, a.Addr, a.Value)
	}
	return fmt.Sprintf("%s 0x%x", a.Op, a.Addr)
}

// LoadTrace reads a trace file.
func LoadTrace(path string) ([]Access, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseTrace(f)
}

// ParseTrace reads one access per line: an operation, an address and, for
// writes, a value. Numbers take Go literal prefixes (0x, 0b, 0o). Blank lines
// and text after '#' are ignored.
func ParseTrace(r io.Reader) ([]Access, error) {
	var trace []Access

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		access, err := parseAccess(fields)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", lineNo, err)
		}
		access.Line = lineNo

		trace = append(trace, access)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return trace, nil
}

func parseAccess(fields []string) (Access, error) {
	op, err := parseOp(fields[0])
	if err != nil {
		return Access{}, err
	}

	want := 2
	if op.IsWrite() {
		want = 3
	}
	if len(fields) != want {
		return Access{}, fmt.Errorf("%s takes %d operands, got %d", op, want-1, len(fields)-1)
	}

	access := Access{Op: op}

	access.Addr, err = strconv.ParseUint(fields[1], 0, 64)
	if err != nil {
		return Access{}, fmt.Errorf("bad address %q: %w", fields[1], err)
	}

	if op.IsWrite() {
		access.Value, err = strconv.ParseUint(fields[2], 0, op.Size()*8)
		if err != nil {
			return Access{}, fmt.Errorf("bad value %q: %w", fields[2], err)
		}
	}

	return access, nil
}

func parseOp(name string) (Op, error) {
	for i, n := range opNames {
		if strings.EqualFold(n, name) {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", name)
}
