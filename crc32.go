package sidump

import "fmt"

const crc32Polynomial = uint32(0x04c11db7)

// MPEG-2 CRC32: no reflection, no final xor. The table is built once at
// startup.
var tableCRC32 [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 > 0 {
				crc = (crc << 1) ^ crc32Polynomial
			} else {
				crc <<= 1
			}
		}
		tableCRC32[i] = crc
	}
}

func computeCRC32(bs []byte) uint32 {
	return updateCRC32(0xffffffff, bs)
}

func updateCRC32(iCrc uint32, bs []byte) uint32 {
	for _, b := range bs {
		iCrc = (iCrc << 8) ^ tableCRC32[((iCrc>>24)^uint32(b))&0xff]
	}
	return iCrc
}

// verifyCRC32 checks a section whose last 4 bytes carry its CRC32.
// Running the checksum over the section including the stored CRC yields 0
// when the section is intact.
func verifyCRC32(s []byte) error {
	if len(s) < 4 {
		return fmt.Errorf("sidump: section of %d bytes is too short for a CRC32", len(s))
	}
	if crc := computeCRC32(s); crc != 0 {
		return fmt.Errorf("sidump: section CRC32 mismatch (remainder %x)", crc)
	}
	return nil
}
