// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func unveil(path, flags string) error {
	return errors.Wrapf(unix.Unveil(path, flags), "unveil %s", path)
}

func unveilBlock() error {
	return errors.Wrap(unix.UnveilBlock(), "unveil")
}
