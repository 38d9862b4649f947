package cpu

import (
	"fmt"

	"github.com/dmgcore/retroboy/internal/bits"
	"github.com/dmgcore/retroboy/internal/decode"
)

func (c *CPU) execute(opcode uint8) {
	ins := decode.Decode(opcode)
	if ins.Opcode == 0xCB {
		cb := decode.DecodeCB(c.fetch())
		c.run(cb)
		return
	}
	c.run(ins)
}

func (c *CPU) run(ins decode.Instruction) {
	switch ins.Kind {
	case decode.Nop:
		// nothing

	case decode.LD:
		if ins.Dest.Kind == decode.MemImm16 && ins.Src1.Kind == decode.Reg16 {
			// LD (nn),SP: the only LD whose destination is a 16-bit
			// memory store. Both bytes go out little-endian.
			addr := c.fetch16()
			v := c.reg16(ins.Src1.Reg16)
			c.writeByte(addr, uint8(v))
			c.writeByte(addr+1, uint8(v>>8))
			break
		}
		v := c.readOperand(ins.Src1)
		c.writeOperand(ins.Dest, v)
		if ins.Dest.Kind == decode.Reg16 && ins.Dest.Reg16 == decode.RegSP && ins.Src1.Kind == decode.Reg16 {
			c.tick4() // LD SP,HL spends an extra internal cycle
		}

	case decode.LDHLSP:
		e := int8(c.fetch())
		c.tick4()
		res, flags := addSPSigned(c.SP, e)
		c.setHL(res)
		c.setFlag(FlagZero, false)
		c.setFlag(FlagSubtract, false)
		c.setFlag(FlagHalfCarry, flags.half)
		c.setFlag(FlagCarry, flags.c)

	case decode.LDH:
		v := c.readOperand(ins.Src1)
		c.writeOperand(ins.Dest, v)

	case decode.Push:
		v := c.reg16(ins.Src1.Reg16)
		c.tick4() // internal delay before the first byte is pushed
		c.SP--
		c.writeByte(c.SP, uint8(v>>8))
		c.SP--
		c.writeByte(c.SP, uint8(v))

	case decode.Pop:
		lo := c.readByte(c.SP)
		c.SP++
		hi := c.readByte(c.SP)
		c.SP++
		c.setReg16(ins.Dest.Reg16, uint16(hi)<<8|uint16(lo))

	case decode.Add:
		b := uint8(c.readOperand(ins.Src1))
		res := addOp(c.A, b, false, false)
		c.applyFlags(res)
		c.A = res.value

	case decode.Adc:
		b := uint8(c.readOperand(ins.Src1))
		res := addOp(c.A, b, c.flag(FlagCarry), true)
		c.applyFlags(res)
		c.A = res.value

	case decode.Sub:
		b := uint8(c.readOperand(ins.Src1))
		res := subOp(c.A, b, false, false)
		c.applyFlags(res)
		c.A = res.value

	case decode.Sbc:
		b := uint8(c.readOperand(ins.Src1))
		res := subOp(c.A, b, c.flag(FlagCarry), true)
		c.applyFlags(res)
		c.A = res.value

	case decode.And:
		b := uint8(c.readOperand(ins.Src1))
		res := andOp(c.A, b)
		c.applyFlags(res)
		c.A = res.value

	case decode.Or:
		b := uint8(c.readOperand(ins.Src1))
		res := orOp(c.A, b)
		c.applyFlags(res)
		c.A = res.value

	case decode.Xor:
		b := uint8(c.readOperand(ins.Src1))
		res := xorOp(c.A, b)
		c.applyFlags(res)
		c.A = res.value

	case decode.Cp:
		b := uint8(c.readOperand(ins.Src1))
		res := subOp(c.A, b, false, false)
		c.applyFlags(res)

	case decode.Inc:
		c.doIncDec(ins.Dest, true)

	case decode.Dec:
		c.doIncDec(ins.Dest, false)

	case decode.AddHL:
		c.addHL16(c.reg16(ins.Src1.Reg16))
		c.tick4() // internal delay: 16-bit ALU ops take one extra M-cycle

	case decode.AddSP:
		e := int8(c.fetch())
		c.tick4()
		c.tick4()
		res, flags := addSPSigned(c.SP, e)
		c.SP = res
		c.setFlag(FlagZero, false)
		c.setFlag(FlagSubtract, false)
		c.setFlag(FlagHalfCarry, flags.half)
		c.setFlag(FlagCarry, flags.c)

	case decode.Rlca:
		c.A = c.rotOp(rotRLC, c.A)
		c.setFlag(FlagZero, false)
	case decode.Rrca:
		c.A = c.rotOp(rotRRC, c.A)
		c.setFlag(FlagZero, false)
	case decode.Rla:
		c.A = c.rotOp(rotRL, c.A)
		c.setFlag(FlagZero, false)
	case decode.Rra:
		c.A = c.rotOp(rotRR, c.A)
		c.setFlag(FlagZero, false)

	case decode.Daa:
		c.daa()
	case decode.Cpl:
		c.A = ^c.A
		c.setFlag(FlagSubtract, true)
		c.setFlag(FlagHalfCarry, true)
	case decode.Scf:
		c.setFlag(FlagSubtract, false)
		c.setFlag(FlagHalfCarry, false)
		c.setFlag(FlagCarry, true)
	case decode.Ccf:
		c.setFlag(FlagSubtract, false)
		c.setFlag(FlagHalfCarry, false)
		c.setFlag(FlagCarry, !c.flag(FlagCarry))

	case decode.JP:
		addr := c.readOperand(ins.Src1)
		if c.branchTaken(ins.Cond) {
			c.PC = addr
			if ins.Src1.Kind != decode.Reg16 { // (HL) jump has no extra delay
				c.tick4()
			}
		}

	case decode.JR:
		e := int8(uint8(c.readOperand(ins.Src1)))
		if c.branchTaken(ins.Cond) {
			c.PC = uint16(int32(c.PC) + int32(e))
			c.tick4()
		}

	case decode.Call:
		addr := c.readOperand(ins.Src1)
		if c.branchTaken(ins.Cond) {
			c.tick4()
			c.SP--
			c.writeByte(c.SP, uint8(c.PC>>8))
			c.SP--
			c.writeByte(c.SP, uint8(c.PC))
			c.PC = addr
		}

	case decode.Ret:
		if c.branchTaken(ins.Cond) {
			if ins.Cond != decode.CondNone {
				c.tick4() // conditional RET spends an extra cycle on the test
			}
			lo := c.readByte(c.SP)
			c.SP++
			hi := c.readByte(c.SP)
			c.SP++
			c.PC = uint16(hi)<<8 | uint16(lo)
			c.tick4()
		} else if ins.Cond != decode.CondNone {
			c.tick4()
		}

	case decode.Reti:
		lo := c.readByte(c.SP)
		c.SP++
		hi := c.readByte(c.SP)
		c.SP++
		c.PC = uint16(hi)<<8 | uint16(lo)
		c.tick4()
		c.IRQ.IME = true

	case decode.Rst:
		c.tick4()
		c.SP--
		c.writeByte(c.SP, uint8(c.PC>>8))
		c.SP--
		c.writeByte(c.SP, uint8(c.PC))
		c.PC = uint16(ins.RstVec)

	case decode.Di:
		c.IRQ.IME = false
	case decode.Ei:
		c.IRQ.IME = true

	case decode.Halt:
		if !c.IRQ.IME && c.IRQ.Pending() {
			// IME is clear but an interrupt is already pending: the
			// hardware fails to actually enter HALT and instead repeats
			// the byte after this opcode once.
			c.mode = modeHaltBug
		} else {
			c.mode = modeHalt
		}

	case decode.Stop:
		c.fetch() // STOP is followed by an ignored byte
		c.mode = modeStop
		c.Stopped = true

	case decode.Rlc, decode.Rrc, decode.Rl, decode.Rr, decode.Sla, decode.Sra, decode.Swap, decode.Srl:
		v := uint8(c.readOperand(ins.Dest))
		res := c.rotOp(cbRotKind(ins.Kind), v)
		c.writeOperand(ins.Dest, uint16(res))

	case decode.Bit:
		v := uint8(c.readOperand(ins.Dest))
		c.setFlag(FlagZero, !bits.Test(v, ins.BitIdx))
		c.setFlag(FlagSubtract, false)
		c.setFlag(FlagHalfCarry, true)

	case decode.Res:
		v := uint8(c.readOperand(ins.Dest))
		c.writeOperand(ins.Dest, uint16(bits.Reset(v, ins.BitIdx)))

	case decode.Set:
		v := uint8(c.readOperand(ins.Dest))
		c.writeOperand(ins.Dest, uint16(bits.Set(v, ins.BitIdx)))

	case decode.Illegal:
		// Undefined opcodes execute as a 4-cycle NOP rather than locking
		// the CPU, matching the reference's documented choice.

	default:
		panic(fmt.Sprintf("cpu: unhandled instruction kind %v", ins.Kind))
	}
}

func (c *CPU) doIncDec(op decode.Operand, inc bool) {
	if op.Kind == decode.Reg16 {
		v := c.reg16(op.Reg16)
		if inc {
			v++
		} else {
			v--
		}
		c.setReg16(op.Reg16, v)
		c.tick4() // 16-bit INC/DEC takes an extra internal cycle
		return
	}
	v := uint8(c.readOperand(op))
	var res uint8
	var flags arithResult
	if inc {
		res, flags = incOp8(v)
	} else {
		res, flags = decOp8(v)
	}
	c.writeOperand(op, uint16(res))
	c.applyIncDecFlags(flags)
}

func (c *CPU) branchTaken(cond decode.Cond) bool {
	switch cond {
	case decode.CondNone:
		return true
	case decode.CondZ:
		return c.flag(FlagZero)
	case decode.CondNZ:
		return !c.flag(FlagZero)
	case decode.CondC:
		return c.flag(FlagCarry)
	case decode.CondNC:
		return !c.flag(FlagCarry)
	}
	return false
}

func cbRotKind(k decode.Kind) rotKind {
	switch k {
	case decode.Rlc:
		return rotRLC
	case decode.Rrc:
		return rotRRC
	case decode.Rl:
		return rotRL
	case decode.Rr:
		return rotRR
	case decode.Sla:
		return rotSLA
	case decode.Sra:
		return rotSRA
	case decode.Swap:
		return rotSWAP
	case decode.Srl:
		return rotSRL
	}
	panic("cpu: not a CB rotate/shift kind")
}
