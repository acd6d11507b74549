package topology

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/fattree/addressing"
)

// Errors reported by the topology.
var (
	ErrInvalidConfig   = errors.New("invalid topology configuration")
	ErrNotBuilt        = errors.New("topology has not been built")
	ErrNotAssigned     = errors.New("addresses have not been assigned")
	ErrAlreadyAssigned = errors.New("addresses have already been assigned")
	ErrOutOfRange      = errors.New("index out of range")
	ErrInvalidTier     = errors.New("invalid tier")
	ErrInvalidRelation = errors.New("invalid relation")
)

// IndexError reports an accessor call with an index outside the container.
type IndexError struct {
	Container string
	Index     []int
	Bound     []int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s%s is out of range, size is %s",
		e.Container, brackets(e.Index), brackets(e.Bound))
}

// Unwrap makes errors.Is(err, ErrOutOfRange) hold.
func (e *IndexError) Unwrap() error {
	return ErrOutOfRange
}

func brackets(v []int) string {
	var sb strings.Builder

	for _, i := range v {
		sb.WriteString("[")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("]")
	}

	return sb.String()
}

// AssignmentError reports the link at which address assignment stopped.
// Nothing from the failed run is visible through the topology.
type AssignmentError struct {
	Family    addressing.Family
	Relation  Relation
	LinkIndex int
	Upper     int
	Lower     int
	Err       error
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf(
		"assigning %s address to link %d (%s[%d][%d]): %v",
		e.Family, e.LinkIndex, e.Relation, e.Upper, e.Lower, e.Err)
}

func (e *AssignmentError) Unwrap() error {
	return e.Err
}

// LinkError reports a link that the link factory failed to create.
type LinkError struct {
	Kind  LinkKind
	Upper int
	Lower int
	Err   error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("creating %s link [%d][%d]: %v",
		e.Kind, e.Upper, e.Lower, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}
