// Package insts provides RV32I instruction definitions and decoding.
//
// This package decodes 32-bit RISC-V machine words into a flat instruction
// representation. It covers the base integer instruction formats: R, I
// (arithmetic, load, JALR), S, B, U, and J. There is no class hierarchy —
// every decoded instruction is a single Instruction value discriminated by
// its Kind field, the same flat-struct-with-discriminant approach the
// ARM64 decoder this package replaced used for its own Format field.
//
// Usage:
//
//	dec := insts.NewDecoder()
//	in := dec.Decode(0x00A50513) // ADDI x10, x10, 10
package insts
