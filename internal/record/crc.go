package record

import "hash/crc32"

// CalculateCRC computes the CRC32 checksum of the key-value pair using IEEE polynomial.
func CalculateCRC(key, value string) uint32 {
	h := crc32.NewIEEE()
	h.Write([]byte(key))
	h.Write([]byte(value))
	return h.Sum32()
}

// ValidateCRC returns true if the provided checksum matches the computed CRC32 of the key-value pair
func ValidateCRC(key, value string, checksum uint32) bool {
	return CalculateCRC(key, value) == checksum
}
