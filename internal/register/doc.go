// Package register knows the i-soft register map and translates between
// register semantics and the hex payloads exchanged with the device.
//
// Every function in this package is pure: no I/O, no shared state. Decoders
// are safe for concurrent use.
//
// # Payloads
//
// The device answers every GET with a JSON envelope {"data": "<hex>"}. The
// hex string is an even number of digits, each pair one byte. Multi-byte
// scalars are little-endian. Statistics records are the exception: they are a
// sequence of 4-byte chunks, each chunk big-endian.
//
//	hardness, _ := register.DecodeHardness("0F")       // 15 °dH
//	salt, _ := register.DecodeSaltLevel("0A00")        // 10 g
//	vol, _ := register.DecodeVolume("E8030000")        // 1000 L, 1.0 m³
//
// # Statistics addresses
//
// Consumption statistics are read from date-derived registers:
//
//	FB dd mm yyyy   daily
//	FC ww yyyy      weekly (ISO week)
//	FD mm yyyy      monthly
//	FE yyyy         yearly
//
// where every field is the numeric value rendered as upper-case hex, zero
// padded to two digits (four for the year). StatisticsAddress implements this.
//
// # Errors
//
// Decoders never return a zero value in place of a failure. Any hex, length
// or range problem yields a *PayloadError that matches ErrMalformedPayload
// under errors.Is.
package register
