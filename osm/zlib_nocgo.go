//go:build !cgo

package osm

import (
	"github.com/klauspost/compress/zlib"
)

var newZlibReader = zlib.NewReader
