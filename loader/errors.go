package loader

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

var invalidConfigError = &tracer.Error{
	Kind: "invalidConfigError",
}

func IsInvalidConfig(err error) bool {
	return errors.Is(err, invalidConfigError)
}

var invalidInputError = &tracer.Error{
	Kind: "invalidInputError",
}

func IsInvalidInput(err error) bool {
	return errors.Is(err, invalidInputError)
}

var fileNotFoundError = &tracer.Error{
	Kind: "fileNotFoundError",
}

func IsFileNotFound(err error) bool {
	return errors.Is(err, fileNotFoundError)
}
