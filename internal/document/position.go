package document

import (
	"strings"

	"github.com/streamhaus/flink-sql-lsp/pkg/protocol"
)

// offsetAt converts a protocol position to a byte offset into text.
// Characters count UTF-16 code units per the LSP position encoding.
// Positions past the end of a line or past the last line clamp.
func offsetAt(text string, pos protocol.Position) int {
	if pos.Line < 0 {
		return 0
	}

	lineStart := 0
	for line := 0; line < pos.Line; line++ {
		nl := strings.IndexByte(text[lineStart:], '\n')
		if nl < 0 {
			return len(text)
		}
		lineStart += nl + 1
	}

	lineEnd := len(text)
	if nl := strings.IndexByte(text[lineStart:], '\n'); nl >= 0 {
		lineEnd = lineStart + nl
	}

	return lineStart + utf16ToByteOffset(text[lineStart:lineEnd], pos.Character)
}

// utf16ToByteOffset converts a UTF-16 code unit offset within a single line
// to a byte offset. An offset landing inside a surrogate pair rounds up to
// the next rune boundary.
func utf16ToByteOffset(line string, offset int) int {
	if offset <= 0 {
		return 0
	}

	units := 0
	for i, r := range line {
		if units >= offset {
			return i
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return len(line)
}
