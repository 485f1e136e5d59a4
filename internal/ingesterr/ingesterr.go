// Package ingesterr gives the four-category error taxonomy of spec §7
// concrete Go types: ConfigError for Configuration, and ChunkError, whose
// Category field is "transport", "data" or "io", for the three per-chunk
// categories. Each wraps an underlying error and, for ChunkError, the
// chunk identity, so the
// top-level driver can report "a one-line category plus the offending
// chunk bounds and underlying message" (spec §7) without string-sniffing
// error messages.
//
// This plays the role the teacher's ErrorType enum (internal/rpc/types.go,
// internal/rpc/methods.go's ErrorTypeParseError) plays for eth-rpc-monitor,
// generalized from "one flat enum on a CallResult" to a Go type for
// configuration failures and one for per-chunk failures, which composes
// better with errors.As/errors.Is and %w wrapping than a bare enum field
// does.
package ingesterr

import (
	"fmt"

	"github.com/dmagro/cryo-go/internal/types"
)

// ConfigError marks a fatal startup-time configuration problem (spec §7:
// "Fatal at startup"). The driver must never begin ingestion once one of
// these has been produced.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func Config(msg string, cause error) error {
	return &ConfigError{Msg: msg, Err: cause}
}

// ChunkError is the base shared by the per-chunk error categories
// (Transport, Data, I/O): each is fatal for its owning chunk only, never
// for its peers (spec §5, §7).
type ChunkError struct {
	Category string // "transport", "data", or "io"
	Datatype types.Datatype
	Chunk    types.BlockChunk
	Err      error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%s error in %s chunk [%d,%d]: %v", e.Category, e.Datatype, e.Chunk.Start, e.Chunk.End, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

func Transport(dt types.Datatype, chunk types.BlockChunk, cause error) error {
	return &ChunkError{Category: "transport", Datatype: dt, Chunk: chunk, Err: cause}
}

func Data(dt types.Datatype, chunk types.BlockChunk, cause error) error {
	return &ChunkError{Category: "data", Datatype: dt, Chunk: chunk, Err: cause}
}

func IO(dt types.Datatype, chunk types.BlockChunk, cause error) error {
	return &ChunkError{Category: "io", Datatype: dt, Chunk: chunk, Err: cause}
}
