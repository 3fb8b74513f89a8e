package user

import (
	"errors"
	"strings"
)

var (
	ErrInvalidUserID = errors.New("invalid user id")
	ErrInvalidRole   = errors.New("invalid role")
)

type ID struct {
	value string
}

func NewID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}, ErrInvalidUserID
	}
	return ID{value: s}, nil
}

func (i ID) Value() string {
	return i.value
}
