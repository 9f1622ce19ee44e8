// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

//go:build !openbsd

package main

func unveil(path, flags string) error { return nil }

func unveilBlock() error { return nil }
