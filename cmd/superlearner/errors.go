package main

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

var invalidFlagError = &tracer.Error{
	Kind: "invalidFlagError",
}

func IsInvalidFlag(err error) bool {
	return errors.Is(err, invalidFlagError)
}
