package network

import (
	"fmt"
)

// Stack describes the protocol stack installed on a node.
type Stack struct {
	Name string
	IPv4 bool
	IPv6 bool
}

// InternetStack is a StackInstaller that installs an IPv4 and/or IPv6
// stack.
type InternetStack struct {
	stack Stack
}

// NewInternetStack creates an installer for an IPv4-only stack.
func NewInternetStack() *InternetStack {
	return &InternetStack{
		stack: Stack{Name: "Internet", IPv4: true},
	}
}

// WithIPv4 enables or disables IPv4.
func (s *InternetStack) WithIPv4(enabled bool) *InternetStack {
	s.stack.IPv4 = enabled
	return s
}

// WithIPv6 enables or disables IPv6.
func (s *InternetStack) WithIPv6(enabled bool) *InternetStack {
	s.stack.IPv6 = enabled
	return s
}

// Stack returns the stack this installer installs.
func (s *InternetStack) Stack() Stack {
	return s.stack
}

// Install installs the stack on all the given nodes. Nothing is installed if
// any node already has a stack.
func (s *InternetStack) Install(nodes ...*Node) error {
	if !s.stack.IPv4 && !s.stack.IPv6 {
		return ErrEmptyStack
	}

	for _, n := range nodes {
		if n == nil {
			return ErrNilNode
		}

		if n.stack != nil {
			return fmt.Errorf("%w: %s", ErrStackInstalled, n.Name())
		}
	}

	for _, n := range nodes {
		st := s.stack
		n.stack = &st
	}

	return nil
}
