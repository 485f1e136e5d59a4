package writer

import (
	"fmt"
	"path/filepath"

	"github.com/dmagro/cryo-go/internal/types"
)

// FileName builds the "<network>__<datatype>__<start>_to_<end>.<ext>"
// output name of spec §6, zero-padding start/end to pad digits (pad is
// implementation-defined but stable within a run — the driver computes it
// once from the overall requested range and passes it to every chunk's
// writer call).
func FileName(network string, dt types.Datatype, chunk types.BlockChunk, pad int, ext string) string {
	return fmt.Sprintf("%s__%s__%0*d_to_%0*d.%s", network, dt, pad, chunk.Start, pad, chunk.End, ext)
}

// OutputPath joins dir and the computed file name.
func OutputPath(dir, network string, dt types.Datatype, chunk types.BlockChunk, pad int, ext string) string {
	return filepath.Join(dir, FileName(network, dt, chunk, pad, ext))
}

// PadWidth returns the digit width needed to print maxHeight, the upper
// bound of the overall requested range.
func PadWidth(maxHeight uint64) int {
	s := fmt.Sprintf("%d", maxHeight)
	return len(s)
}
