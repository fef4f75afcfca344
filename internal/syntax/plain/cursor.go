package plain

import (
	"fmt"

	"fortio.org/safecast"
)

// cursor is a byte position inside the text being scanned.
type cursor struct {
	text  string
	off   uint32
	limit uint32
}

func newCursor(text string) cursor {
	limit, err := safecast.Conv[uint32](len(text))
	if err != nil {
		panic(fmt.Errorf("len text overflow: %w", err))
	}
	return cursor{text: text, limit: limit}
}

// eof проверяет, достигнут ли конец текста
func (c *cursor) eof() bool {
	return c.off >= c.limit
}

// peek читает текущий байт, если есть, иначе возвращает 0
func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.text[c.off]
}

// peek2 читает текущий и следующий байт
func (c *cursor) peek2() (b0, b1 byte, ok bool) {
	if c.off+1 >= c.limit {
		return 0, 0, false
	}
	return c.text[c.off], c.text[c.off+1], true
}

// bump перемещает курсор на один байт вперед и возвращает прочитанный байт
func (c *cursor) bump() byte {
	if c.eof() {
		return 0
	}
	b := c.text[c.off]
	c.off++
	return b
}

// eatWhile продвигается, пока pred истинен.
func (c *cursor) eatWhile(pred func(byte) bool) {
	for !c.eof() && pred(c.peek()) {
		c.off++
	}
}

func (c *cursor) slice(from uint32) string {
	return c.text[from:c.off]
}
