package decode

// Kind identifies the operation an Instruction performs. Operand shape is
// carried separately in Dest/Src1/Src2 so the executor can interpret any
// Kind against any legal combination of operands without a second switch
// per addressing mode.
type Kind uint8

const (
	Nop Kind = iota
	LD
	LDH
	Push
	Pop
	Add
	AddHL
	AddSP
	Adc
	Sub
	Sbc
	And
	Or
	Xor
	Cp
	Inc
	Dec
	LDHLSP
	Rlca
	Rrca
	Rla
	Rra
	Daa
	Cpl
	Scf
	Ccf
	JP
	JR
	Call
	Ret
	Reti
	Rst
	Di
	Ei
	Halt
	Stop
	Rlc
	Rrc
	Rl
	Rr
	Sla
	Sra
	Swap
	Srl
	Bit
	Res
	Set
	Illegal
)

// Cond names a branch condition. None means the branch/operation is
// unconditional.
type Cond uint8

const (
	CondNone Cond = iota
	CondNZ
	CondZ
	CondNC
	CondC
)

var condTable = [4]Cond{CondNZ, CondZ, CondNC, CondC}

// Instruction is the fully decoded, generic shape of one opcode: what
// operation it performs, which operands it reads/writes, and how many
// bytes (including the opcode itself, and the 0xCB prefix byte when
// present) it occupies in the instruction stream.
type Instruction struct {
	Opcode uint8
	CB     bool
	Kind   Kind
	Dest   Operand
	Src1   Operand
	Src2   Operand
	Cond   Cond
	BitIdx uint8 // operand for BIT/RES/SET
	RstVec uint8
	Length uint8
}
