package asm

// Image is the output binary under construction. Bytes append at the write
// cursor; Seek repositions it absolutely. Seeking past the end grows the
// image with zero bytes, and seeking backward lets later writes overwrite,
// so the result is deterministic regardless of origin order.
type Image struct {
	buf []byte
	pos int
}

func NewImage() *Image {
	return &Image{}
}

// Seek moves the write cursor to the absolute offset off, zero-filling any
// gap between the current end of the image and off.
func (im *Image) Seek(off uint32) {
	if int(off) > len(im.buf) {
		im.buf = append(im.buf, make([]byte, int(off)-len(im.buf))...)
	}
	im.pos = int(off)
}

// Append writes bs at the cursor, overwriting existing bytes when the
// cursor sits inside the image and growing it otherwise.
func (im *Image) Append(bs ...byte) {
	for _, b := range bs {
		if im.pos < len(im.buf) {
			im.buf[im.pos] = b
		} else {
			im.buf = append(im.buf, b)
		}
		im.pos++
	}
}

// Pos returns the current write cursor.
func (im *Image) Pos() uint32 {
	return uint32(im.pos)
}

// Len returns the total extent of the image in bytes.
func (im *Image) Len() int {
	return len(im.buf)
}

// Bytes returns the full image. The slice aliases the internal buffer.
func (im *Image) Bytes() []byte {
	return im.buf
}
