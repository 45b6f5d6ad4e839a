package btree

import "github.com/riverdb/riverdb/internal/bx"

// header is the page-0 index header: [nodeCount][entryCount][keyType][n][rootPage].
type header struct {
	NodeCount  int
	EntryCount int
	KeyType    int32
	N          int
	Root       int
}

func encodeHeader(h header) []byte {
	buf := make([]byte, 20)
	bx.PutU32(buf[0:4], uint32(int32(h.NodeCount)))
	bx.PutU32(buf[4:8], uint32(int32(h.EntryCount)))
	bx.PutU32(buf[8:12], uint32(h.KeyType))
	bx.PutU32(buf[12:16], uint32(int32(h.N)))
	bx.PutU32(buf[16:20], uint32(int32(h.Root)))
	return buf
}

func decodeHeader(buf []byte) header {
	return header{
		NodeCount:  int(int32(bx.U32(buf[0:4]))),
		EntryCount: int(int32(bx.U32(buf[4:8]))),
		KeyType:    int32(bx.U32(buf[8:12])),
		N:          int(int32(bx.U32(buf[12:16]))),
		Root:       int(int32(bx.U32(buf[16:20]))),
	}
}
