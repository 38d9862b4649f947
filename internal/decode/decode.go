package decode

var aluOps = [8]Kind{Add, Adc, Sub, Sbc, And, Xor, Or, Cp}
var rotOps = [8]Kind{Rlc, Rrc, Rl, Rr, Sla, Sra, Swap, Srl}

// Decode turns an unprefixed opcode byte into its generic Instruction
// form. It never panics: every one of the 256 possible byte values
// either names a real operation or decodes as Illegal with Length 1 (the
// hardware treats the unused opcodes as undefined, one-byte no-ops that
// lock up real silicon; this implementation just reports them so a
// debugger can flag an illegal-opcode fault instead of running forever).
func Decode(opcode uint8) Instruction {
	x := opcode >> 6
	y := (opcode >> 3) & 7
	z := opcode & 7
	p := y >> 1
	q := y & 1

	ins := Instruction{Opcode: opcode, Length: 1}

	switch x {
	case 0:
		switch z {
		case 0:
			switch {
			case y == 0:
				ins.Kind = Nop
			case y == 1:
				ins.Kind = LD
				ins.Dest = Operand{Kind: MemImm16}
				ins.Src1 = reg16(RegSP)
				ins.Length = 3
			case y == 2:
				ins.Kind = Stop
				ins.Length = 2
			case y == 3:
				ins.Kind = JR
				ins.Src1 = Operand{Kind: Imm8}
				ins.Length = 2
			default:
				ins.Kind = JR
				ins.Cond = condTable[y-4]
				ins.Src1 = Operand{Kind: Imm8}
				ins.Length = 2
			}
		case 1:
			if q == 0 {
				ins.Kind = LD
				ins.Dest = rp(p)
				ins.Src1 = Operand{Kind: Imm16}
				ins.Length = 3
			} else {
				ins.Kind = AddHL
				ins.Dest = reg16(RegHL)
				ins.Src1 = rp(p)
			}
		case 2:
			ins.Kind = LD
			mem := Operand{Kind: MemReg16, Reg16: RegHL}
			switch p {
			case 0:
				mem = Operand{Kind: MemReg16, Reg16: RegBC}
			case 1:
				mem = Operand{Kind: MemReg16, Reg16: RegDE}
			case 2:
				mem.Step = PostInc
			case 3:
				mem.Step = PostDec
			}
			if q == 0 {
				ins.Dest, ins.Src1 = mem, reg8(RegA)
			} else {
				ins.Dest, ins.Src1 = reg8(RegA), mem
			}
		case 3:
			if q == 0 {
				ins.Kind = Inc
				ins.Dest = rp(p)
			} else {
				ins.Kind = Dec
				ins.Dest = rp(p)
			}
		case 4:
			ins.Kind = Inc
			ins.Dest = r8(y)
		case 5:
			ins.Kind = Dec
			ins.Dest = r8(y)
		case 6:
			ins.Kind = LD
			ins.Dest = r8(y)
			ins.Src1 = Operand{Kind: Imm8}
			ins.Length = 2
		case 7:
			ins.Kind = [8]Kind{Rlca, Rrca, Rla, Rra, Daa, Cpl, Scf, Ccf}[y]
		}
	case 1:
		if z == 6 && y == 6 {
			ins.Kind = Halt
		} else {
			ins.Kind = LD
			ins.Dest = r8(y)
			ins.Src1 = r8(z)
		}
	case 2:
		ins.Kind = aluOps[y]
		ins.Dest = reg8(RegA)
		ins.Src1 = r8(z)
	case 3:
		switch z {
		case 0:
			switch {
			case y <= 3:
				ins.Kind = Ret
				ins.Cond = condTable[y]
			case y == 4:
				ins.Kind = LDH
				ins.Dest = Operand{Kind: MemIOImm8}
				ins.Src1 = reg8(RegA)
				ins.Length = 2
			case y == 5:
				ins.Kind = AddSP
				ins.Dest = reg16(RegSP)
				ins.Src1 = Operand{Kind: Imm8}
				ins.Length = 2
			case y == 6:
				ins.Kind = LDH
				ins.Dest = reg8(RegA)
				ins.Src1 = Operand{Kind: MemIOImm8}
				ins.Length = 2
			case y == 7:
				ins.Kind = LDHLSP
				ins.Dest = reg16(RegHL)
				ins.Src1 = Operand{Kind: Imm8}
				ins.Length = 2
			}
		case 1:
			if q == 0 {
				ins.Kind = Pop
				ins.Dest = rp2(p)
			} else {
				switch p {
				case 0:
					ins.Kind = Ret
				case 1:
					ins.Kind = Reti
				case 2:
					ins.Kind = JP
					ins.Src1 = reg16(RegHL)
				case 3:
					ins.Kind = LD
					ins.Dest = reg16(RegSP)
					ins.Src1 = reg16(RegHL)
				}
			}
		case 2:
			switch {
			case y <= 3:
				ins.Kind = JP
				ins.Cond = condTable[y]
				ins.Src1 = Operand{Kind: Imm16}
				ins.Length = 3
			case y == 4:
				ins.Kind = LD
				ins.Dest = Operand{Kind: MemIOReg8}
				ins.Src1 = reg8(RegA)
			case y == 5:
				ins.Kind = LD
				ins.Dest = Operand{Kind: MemImm16}
				ins.Src1 = reg8(RegA)
				ins.Length = 3
			case y == 6:
				ins.Kind = LD
				ins.Dest = reg8(RegA)
				ins.Src1 = Operand{Kind: MemIOReg8}
			case y == 7:
				ins.Kind = LD
				ins.Dest = reg8(RegA)
				ins.Src1 = Operand{Kind: MemImm16}
				ins.Length = 3
			}
		case 3:
			switch y {
			case 0:
				ins.Kind = JP
				ins.Src1 = Operand{Kind: Imm16}
				ins.Length = 3
			case 1:
				// 0xCB prefix: decoded via DecodeCB on the next byte.
				ins.Kind = Nop
				ins.Length = 2
			case 6:
				ins.Kind = Di
			case 7:
				ins.Kind = Ei
			default:
				ins.Kind = Illegal
			}
		case 4:
			if y <= 3 {
				ins.Kind = Call
				ins.Cond = condTable[y]
				ins.Src1 = Operand{Kind: Imm16}
				ins.Length = 3
			} else {
				ins.Kind = Illegal
			}
		case 5:
			if q == 0 {
				ins.Kind = Push
				ins.Src1 = rp2(p)
			} else if p == 0 {
				ins.Kind = Call
				ins.Src1 = Operand{Kind: Imm16}
				ins.Length = 3
			} else {
				ins.Kind = Illegal
			}
		case 6:
			ins.Kind = aluOps[y]
			ins.Dest = reg8(RegA)
			ins.Src1 = Operand{Kind: Imm8}
			ins.Length = 2
		case 7:
			ins.Kind = Rst
			ins.RstVec = y * 8
		}
	}
	return ins
}

// DecodeCB turns the byte following a 0xCB prefix into its generic
// Instruction form. Every one of the 256 values is a legal instruction;
// there is no illegal CB opcode.
func DecodeCB(opcode uint8) Instruction {
	x := opcode >> 6
	y := (opcode >> 3) & 7
	z := opcode & 7

	ins := Instruction{Opcode: opcode, CB: true, Length: 2}
	operand := r8(z)

	switch x {
	case 0:
		ins.Kind = rotOps[y]
		ins.Dest = operand
	case 1:
		ins.Kind = Bit
		ins.Dest = operand
		ins.BitIdx = y
	case 2:
		ins.Kind = Res
		ins.Dest = operand
		ins.BitIdx = y
	case 3:
		ins.Kind = Set
		ins.Dest = operand
		ins.BitIdx = y
	}
	return ins
}
