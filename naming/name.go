package naming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidName is wrapped by every error returned from ValidateName.
var ErrInvalidName = errors.New("invalid name")

// Element is one dot-separated part of a name, such as "Edge[2][1]".
type Element struct {
	Name  string
	Index []int
}

// Split breaks a name into its elements.
//
// The names this package builds look like "FatTree.Aggregator[1].Port[0]":
//   - elements are separated by single dots and none of them is empty;
//   - each element starts with a capital letter and has no '_', '-',
//     quotes, or spaces;
//   - positions in a series follow the element as bracketed integers.
func Split(name string) ([]Element, error) {
	parts := strings.Split(name, ".")
	elems := make([]Element, 0, len(parts))

	for _, p := range parts {
		e, err := parseElement(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidName, name, err)
		}

		elems = append(elems, e)
	}

	return elems, nil
}

func parseElement(s string) (Element, error) {
	base, rest, hasIndex := strings.Cut(s, "[")

	if err := checkElementName(base); err != nil {
		return Element{}, err
	}

	e := Element{Name: base}
	if !hasIndex {
		return e, nil
	}

	rest = "[" + rest
	for rest != "" {
		if rest[0] != '[' {
			return Element{}, fmt.Errorf("unexpected %q after index", rest)
		}

		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return Element{}, errors.New("brackets do not match")
		}

		idx, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return Element{}, fmt.Errorf("index %q is not an integer",
				rest[1:end])
		}

		e.Index = append(e.Index, idx)
		rest = rest[end+1:]
	}

	return e, nil
}

func checkElementName(s string) error {
	if s == "" {
		return errors.New("element must not be empty")
	}

	if strings.ContainsRune(s, ']') {
		return errors.New("brackets do not match")
	}

	if i := strings.IndexAny(s, "_-\"' "); i >= 0 {
		return fmt.Errorf("element must not contain %q", s[i])
	}

	if s[0] < 'A' || s[0] > 'Z' {
		return errors.New("element must start with a capital letter")
	}

	return nil
}

// ValidateName reports whether name follows the naming convention described
// on Split.
func ValidateName(name string) error {
	_, err := Split(name)

	return err
}

// NameMustBeValid panics if ValidateName fails.
func NameMustBeValid(name string) {
	if err := ValidateName(name); err != nil {
		panic(err)
	}
}

// BuildName joins a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex is BuildName for the index-th element of a series.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildNameWithMultiDimensionalIndex(
		parentName, elementName, []int{index})
}

// BuildNameWithMultiDimensionalIndex is BuildName for an element of a
// series with more than one dimension, such as "Edge[2][1]".
func BuildNameWithMultiDimensionalIndex(
	parentName, elementName string,
	index []int,
) string {
	var sb strings.Builder

	sb.WriteString(elementName)

	for _, i := range index {
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(i))
		sb.WriteByte(']')
	}

	return BuildName(parentName, sb.String())
}
