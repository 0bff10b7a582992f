package wire

import "errors"

// Frames on the controller<->panel stream are COBS-stuffed and terminated
// with a zero byte. Because the stuffed body is zero-free, a reader can
// always resynchronize on the next delimiter no matter how garbled the
// preceding bytes were.

// Delim terminates every frame on the wire.
const Delim byte = 0x00

// ErrCorruptFrame reports a frame whose stuffing is inconsistent.
var ErrCorruptFrame = errors.New("wire: corrupt COBS frame")

// Stuff encodes src with consistent-overhead byte stuffing. The result
// contains no zero bytes and does not include the trailing delimiter.
func Stuff(src []byte) []byte {
	// Worst case adds one code byte per 254 data bytes, plus the leading code.
	dst := make([]byte, 0, len(src)+1+len(src)/254)
	codeAt := len(dst)
	dst = append(dst, 0)
	code := byte(1)

	for _, b := range src {
		if b == 0 {
			dst[codeAt] = code
			codeAt = len(dst)
			dst = append(dst, 0)
			code = 1
			continue
		}
		dst = append(dst, b)
		code++
		if code == 0xFF {
			dst[codeAt] = code
			codeAt = len(dst)
			dst = append(dst, 0)
			code = 1
		}
	}
	dst[codeAt] = code
	return dst
}

// Unstuff decodes a stuffed frame (without its delimiter). It returns
// ErrCorruptFrame when the block structure is inconsistent, including when
// the input contains a stray zero byte.
func Unstuff(src []byte) ([]byte, error) {
	dst := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		code := src[i]
		if code == 0 {
			return nil, ErrCorruptFrame
		}
		i++
		end := i + int(code) - 1
		if end > len(src) {
			return nil, ErrCorruptFrame
		}
		for ; i < end; i++ {
			if src[i] == 0 {
				return nil, ErrCorruptFrame
			}
			dst = append(dst, src[i])
		}
		if code != 0xFF && i < len(src) {
			dst = append(dst, 0)
		}
	}
	return dst, nil
}
