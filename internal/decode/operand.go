// Package decode turns a raw opcode byte into a generic Instruction record
// describing its operands, independent of how those operands are later
// fetched or executed. The CB-prefixed instruction set decodes through a
// second table keyed on the byte that follows 0xCB.
//
// The decomposition follows the well-known x/y/z/p/q breakdown of a Z80
// opcode byte (bits 7-6, 5-3, 2-0, and the two halves of y), which turns
// the 256-entry opcode space into a handful of table lookups instead of a
// literal 256-case switch.
package decode

// OperandKind tags the shape of an Operand. Every addressing mode the
// instruction set uses reduces to one of these.
type OperandKind uint8

const (
	None OperandKind = iota
	Imm8
	Imm16
	Reg8
	Reg16
	MemReg16
	MemImm16
	MemIOImm8 // (FF00+n)
	MemIOReg8 // (FF00+C)
)

// Reg8ID names an 8-bit register, or the (HL) pseudo-register slot used
// by the r[8] table everywhere an 8-bit operand can also be memory.
type Reg8ID uint8

const (
	RegB Reg8ID = iota
	RegC
	RegD
	RegE
	RegH
	RegL
	RegHLMem // not a register: r[z]==6 means "use (HL)" instead
	RegA
)

// Reg16ID names a 16-bit register pair. Which set of four pairs p indexes
// into (BC/DE/HL/SP vs BC/DE/HL/AF) depends on the instruction.
type Reg16ID uint8

const (
	RegBC Reg16ID = iota
	RegDE
	RegHL
	RegSP
	RegAF
)

// Inc16Mode tags whether a memory-via-HL operand also increments or
// decrements HL as a side effect (LD A,(HL+) and friends).
type Inc16Mode uint8

const (
	NoStep Inc16Mode = iota
	PostInc
	PostDec
)

// Operand is a tagged union over every addressing mode the instruction
// set uses. Only the fields relevant to Kind are meaningful.
type Operand struct {
	Kind  OperandKind
	Reg8  Reg8ID
	Reg16 Reg16ID
	Step  Inc16Mode // only meaningful when Reg16 == RegHL and Kind == MemReg16
}

func reg8(id Reg8ID) Operand  { return Operand{Kind: Reg8, Reg8: id} }
func reg16(id Reg16ID) Operand { return Operand{Kind: Reg16, Reg16: id} }
func memHL() Operand          { return Operand{Kind: MemReg16, Reg16: RegHL} }

// r8 resolves the 3-bit register-or-memory index used throughout the
// unprefixed and CB tables: 0-5 and 7 name a register, 6 means "operate
// on the byte at (HL)" instead.
func r8(idx uint8) Operand {
	if idx == 6 {
		return memHL()
	}
	return reg8(Reg8ID(idx))
}

// rp resolves the BC/DE/HL/SP register-pair table.
func rp(idx uint8) Operand {
	return reg16([...]Reg16ID{RegBC, RegDE, RegHL, RegSP}[idx])
}

// rp2 resolves the BC/DE/HL/AF register-pair table used by PUSH/POP.
func rp2(idx uint8) Operand {
	return reg16([...]Reg16ID{RegBC, RegDE, RegHL, RegAF}[idx])
}
