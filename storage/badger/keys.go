package badger

import "encoding/binary"

// Key prefixes for different data types. The 0x00 separator keeps
// arbitrary sourceId bytes from colliding with the prefix namespace and
// makes prefix scans by sourceId exact.
const (
	chunkKeyPrefix  = "chunk\x00"
	sourceKeyPrefix = "source\x00"
)

// makeChunkKey generates a key for one stored chunk.
// Format: chunk <sourceId> 0x00 <index BigEndian>
func makeChunkKey(sourceId string, index int) []byte {
	buf := make([]byte, 0, len(chunkKeyPrefix)+len(sourceId)+1+8)
	buf = append(buf, chunkKeyPrefix...)
	buf = append(buf, sourceId...)
	buf = append(buf, 0x00)
	// BigEndian so iteration order follows chunk index order
	buf = binary.BigEndian.AppendUint64(buf, uint64(index))
	return buf
}

// makeChunkScanPrefix generates the scan prefix covering every chunk of
// one exact sourceId.
func makeChunkScanPrefix(sourceId string) []byte {
	buf := make([]byte, 0, len(chunkKeyPrefix)+len(sourceId)+1)
	buf = append(buf, chunkKeyPrefix...)
	buf = append(buf, sourceId...)
	buf = append(buf, 0x00)
	return buf
}

// makeChunkPrefixScanPrefix generates the scan prefix covering every chunk
// whose sourceId starts with the given prefix.
func makeChunkPrefixScanPrefix(sourceIdPrefix string) []byte {
	buf := make([]byte, 0, len(chunkKeyPrefix)+len(sourceIdPrefix))
	buf = append(buf, chunkKeyPrefix...)
	buf = append(buf, sourceIdPrefix...)
	return buf
}

// makeSourceKey generates the key holding a sourceId's documentId.
func makeSourceKey(sourceId string) []byte {
	buf := make([]byte, 0, len(sourceKeyPrefix)+len(sourceId))
	buf = append(buf, sourceKeyPrefix...)
	buf = append(buf, sourceId...)
	return buf
}

// makeSourcePrefixScanPrefix generates the scan prefix covering every
// source entry whose sourceId starts with the given prefix.
func makeSourcePrefixScanPrefix(sourceIdPrefix string) []byte {
	return makeSourceKey(sourceIdPrefix)
}
