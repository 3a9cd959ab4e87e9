// Package trace reads allocation traces and replays them against a heap.
//
// A trace is a text file with one operation per line:
//
//	a <id> <size>   allocate size bytes and remember the pointer as id
//	f <id>          free the pointer remembered as id
//
// Blank lines and lines starting with # are ignored.
package trace

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

type OpKind uint8

const (
	OpAllocate OpKind = iota
	OpFree
)

func (k OpKind) String() string {
	switch k {
	case OpAllocate:
		return "a"
	case OpFree:
		return "f"
	}
	return "unknown"
}

// Op is a single trace operation. Size is only meaningful for OpAllocate.
type Op struct {
	Kind OpKind
	ID   int
	Size int
	Line int
}

// Parse reads a whole trace. Errors name the offending line.
func Parse(r io.Reader) ([]Op, error) {
	var ops []Op

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		op, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNumber)
		}
		op.Line = lineNumber
		ops = append(ops, op)
	}

	err := scanner.Err()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read trace")
	}

	return ops, nil
}

func parseLine(line string) (Op, error) {
	fields := strings.Fields(line)

	var op Op
	var expectedFields int
	switch fields[0] {
	case "a":
		op.Kind = OpAllocate
		expectedFields = 3
	case "f":
		op.Kind = OpFree
		expectedFields = 2
	default:
		return op, errors.Newf("unknown operation %q", fields[0])
	}

	if len(fields) != expectedFields {
		return op, errors.Newf("operation %q takes %d arguments, got %d", fields[0], expectedFields-1, len(fields)-1)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return op, errors.Wrapf(err, "invalid id %q", fields[1])
	}
	op.ID = id

	if op.Kind == OpAllocate {
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return op, errors.Wrapf(err, "invalid size %q", fields[2])
		}
		op.Size = size
	}

	return op, nil
}
