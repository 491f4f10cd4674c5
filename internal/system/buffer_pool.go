package system

import (
	"bytes"
	"sync"
)

// bufferPool reuses the byte buffers that frame export and the websocket
// broadcaster assemble payloads in, to reduce GC pressure during long
// exports.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// maxPooledBuffer caps what goes back into the pool; one oversized frame
// should not pin its allocation forever.
const maxPooledBuffer = 1 << 20

// GetBuffer returns an empty buffer from the pool.
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool for reuse.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}
