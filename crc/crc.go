// Package crc implements the SiRF binary checksum:
// 15-bit sum of payload bytes.
package crc

const Mask15 uint16 = 0x7fff

// Sum15 continues checksum crc over data.
func Sum15(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = (crc + uint16(b)) & Mask15
	}
	return crc
}
