// Package ioelem provides composable byte producers ("inputs") and byte
// consumers ("collectors") that can be concatenated, factory-generated,
// delimited, and nested to describe streaming wire formats declaratively,
// without writing ad-hoc state machines per protocol.
package ioelem
