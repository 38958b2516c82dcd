// Package disasm renders SM83 opcodes as human-readable mnemonics, decoding
// the same bit-pattern opcode families core/cpu's execute() dispatches on.
package disasm

import (
	"fmt"

	"github.com/wrnrlr/dmgcore/core/bit"
	"github.com/wrnrlr/dmgcore/core/memory"
)

// reg8Names is the B C D E H L (HL) A encoding shared by most opcode groups.
var reg8Names = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

// pairNames is the BC DE HL SP grouping used by 16-bit load/inc/dec/add.
var pairNames = [4]string{"BC", "DE", "HL", "SP"}

// pushPopNames is the BC DE HL AF grouping used by PUSH/POP.
var pushPopNames = [4]string{"BC", "DE", "HL", "AF"}

var condNames = [4]string{"NZ", "Z", "NC", "C"}

var aluNames = [8]string{"ADD A,", "ADC A,", "SUB", "SBC A,", "AND", "XOR", "OR", "CP"}

var cbRotateNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Instruction string
	Length      int
}

// DisassembleAt disassembles the instruction at the given program counter.
func DisassembleAt(pc uint16, mmu *memory.MMU) DisassemblyLine {
	opcode := mmu.Read(pc)
	read := func(offset uint16) byte { return mmu.Read(pc + offset) }

	if opcode == 0xCB {
		cbOpcode := read(1)
		return DisassemblyLine{Address: pc, Instruction: disassembleCB(cbOpcode), Length: 2}
	}

	instruction, length := disassembleMain(opcode, read)
	return DisassemblyLine{Address: pc, Instruction: instruction, Length: length}
}

func jrConditionIndex(opcode uint8) uint8 {
	switch opcode {
	case 0x20:
		return 0
	case 0x28:
		return 1
	case 0x30:
		return 2
	default:
		return 3
	}
}

func jpConditionIndex(opcode uint8) uint8 {
	switch opcode {
	case 0xC2, 0xC4, 0xC0:
		return 0
	case 0xCA, 0xCC, 0xC8:
		return 1
	case 0xD2, 0xD4, 0xD0:
		return 2
	default:
		return 3
	}
}

// disassembleMain mirrors core/cpu's execute() dispatch, producing a mnemonic
// and instruction length instead of running the instruction.
func disassembleMain(opcode uint8, read func(uint16) byte) (string, int) {
	d8 := func() uint8 { return read(1) }
	d16 := func() uint16 { return bit.Combine(read(2), read(1)) }

	switch opcode {
	case 0x00:
		return "NOP", 1
	case 0x10:
		return "STOP", 2
	case 0x76:
		return "HALT", 1
	case 0xF3:
		return "DI", 1
	case 0xFB:
		return "EI", 1
	case 0x07:
		return "RLCA", 1
	case 0x0F:
		return "RRCA", 1
	case 0x17:
		return "RLA", 1
	case 0x1F:
		return "RRA", 1
	case 0x27:
		return "DAA", 1
	case 0x2F:
		return "CPL", 1
	case 0x37:
		return "SCF", 1
	case 0x3F:
		return "CCF", 1
	case 0x08:
		return fmt.Sprintf("LD (0x%04X),SP", d16()), 3
	case 0x18:
		return fmt.Sprintf("JR %d", int8(d8())), 2
	case 0x20, 0x30, 0x28, 0x38:
		return fmt.Sprintf("JR %s,%d", condNames[jrConditionIndex(opcode)], int8(d8())), 2
	case 0x02:
		return "LD (BC),A", 1
	case 0x12:
		return "LD (DE),A", 1
	case 0x22:
		return "LD (HL+),A", 1
	case 0x32:
		return "LD (HL-),A", 1
	case 0x0A:
		return "LD A,(BC)", 1
	case 0x1A:
		return "LD A,(DE)", 1
	case 0x2A:
		return "LD A,(HL+)", 1
	case 0x3A:
		return "LD A,(HL-)", 1
	case 0xE0:
		return fmt.Sprintf("LDH (0x%02X),A", d8()), 2
	case 0xF0:
		return fmt.Sprintf("LDH A,(0x%02X)", d8()), 2
	case 0xE2:
		return "LD (C),A", 1
	case 0xF2:
		return "LD A,(C)", 1
	case 0xEA:
		return fmt.Sprintf("LD (0x%04X),A", d16()), 3
	case 0xFA:
		return fmt.Sprintf("LD A,(0x%04X)", d16()), 3
	case 0xE8:
		return fmt.Sprintf("ADD SP,%d", int8(d8())), 2
	case 0xF8:
		return fmt.Sprintf("LD HL,SP%+d", int8(d8())), 2
	case 0xF9:
		return "LD SP,HL", 1
	case 0xE9:
		return "JP (HL)", 1
	case 0xC3:
		return fmt.Sprintf("JP 0x%04X", d16()), 3
	case 0xC2, 0xD2, 0xCA, 0xDA:
		return fmt.Sprintf("JP %s,0x%04X", condNames[jpConditionIndex(opcode)], d16()), 3
	case 0xCD:
		return fmt.Sprintf("CALL 0x%04X", d16()), 3
	case 0xC4, 0xD4, 0xCC, 0xDC:
		return fmt.Sprintf("CALL %s,0x%04X", condNames[jpConditionIndex(opcode)], d16()), 3
	case 0xC9:
		return "RET", 1
	case 0xD9:
		return "RETI", 1
	case 0xC0, 0xD0, 0xC8, 0xD8:
		return fmt.Sprintf("RET %s", condNames[jpConditionIndex(opcode)]), 1
	case 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD:
		return fmt.Sprintf("DB 0x%02X", opcode), 1
	}

	switch {
	case opcode&0xC0 == 0x40: // LD r,r'
		dest := reg8Names[(opcode>>3)&7]
		src := reg8Names[opcode&7]
		return fmt.Sprintf("LD %s,%s", dest, src), 1
	case opcode&0xC0 == 0x80: // ALU A,r
		return fmt.Sprintf("%s %s", aluNames[(opcode>>3)&7], reg8Names[opcode&7]), 1
	case opcode&0xC7 == 0x04: // INC r
		return fmt.Sprintf("INC %s", reg8Names[(opcode>>3)&7]), 1
	case opcode&0xC7 == 0x05: // DEC r
		return fmt.Sprintf("DEC %s", reg8Names[(opcode>>3)&7]), 1
	case opcode&0xC7 == 0x06: // LD r,d8
		return fmt.Sprintf("LD %s,0x%02X", reg8Names[(opcode>>3)&7], d8()), 2
	case opcode&0xC7 == 0x01 && opcode&0x08 == 0: // LD rr,d16
		return fmt.Sprintf("LD %s,0x%04X", pairNames[(opcode>>4)&3], d16()), 3
	case opcode&0xCF == 0x03: // INC rr
		return fmt.Sprintf("INC %s", pairNames[(opcode>>4)&3]), 1
	case opcode&0xCF == 0x0B: // DEC rr
		return fmt.Sprintf("DEC %s", pairNames[(opcode>>4)&3]), 1
	case opcode&0xCF == 0x09: // ADD HL,rr
		return fmt.Sprintf("ADD HL,%s", pairNames[(opcode>>4)&3]), 1
	case opcode&0xC7 == 0xC6: // ALU A,d8
		return fmt.Sprintf("%s 0x%02X", aluNames[(opcode>>3)&7], d8()), 2
	case opcode&0xC7 == 0xC7: // RST n
		return fmt.Sprintf("RST 0x%02X", opcode&0x38), 1
	case opcode&0xCF == 0xC1: // POP rr
		return fmt.Sprintf("POP %s", pushPopNames[(opcode>>4)&3]), 1
	case opcode&0xCF == 0xC5: // PUSH rr
		return fmt.Sprintf("PUSH %s", pushPopNames[(opcode>>4)&3]), 1
	}

	return fmt.Sprintf("DB 0x%02X", opcode), 1
}

// disassembleCB mirrors core/cpu's executeCB dispatch.
func disassembleCB(opcode uint8) string {
	reg := reg8Names[opcode&7]
	switch {
	case opcode < 0x40:
		return fmt.Sprintf("%s %s", cbRotateNames[(opcode>>3)&7], reg)
	case opcode < 0x80:
		return fmt.Sprintf("BIT %d,%s", (opcode>>3)&7, reg)
	case opcode < 0xC0:
		return fmt.Sprintf("RES %d,%s", (opcode>>3)&7, reg)
	default:
		return fmt.Sprintf("SET %d,%s", (opcode>>3)&7, reg)
	}
}

// DisassembleRange disassembles multiple instructions starting from the given PC
func DisassembleRange(startPC uint16, count int, mmu *memory.MMU) []DisassemblyLine {
	lines := make([]DisassemblyLine, 0, count)
	pc := startPC

	for i := 0; i < count && pc <= 0xFFFF; i++ {
		line := DisassembleAt(pc, mmu)
		lines = append(lines, line)
		pc += uint16(line.Length)
	}

	return lines
}

// DisassembleAround disassembles instructions around the given PC, walking
// backward a fixed number of bytes and resyncing forward to currentPC.
func DisassembleAround(currentPC uint16, beforeCount, afterCount int, mmu *memory.MMU) []DisassemblyLine {
	maxBack := uint16(beforeCount * 3)
	startPC := currentPC
	if maxBack > currentPC {
		startPC = 0
	} else {
		startPC = currentPC - maxBack
	}

	// Walk forward from startPC, collecting the trailing beforeCount
	// instructions that land exactly on currentPC.
	var before []DisassemblyLine
	for pc := startPC; pc < currentPC; {
		line := DisassembleAt(pc, mmu)
		before = append(before, line)
		if len(before) > beforeCount {
			before = before[1:]
		}
		pc += uint16(line.Length)
	}

	total := make([]DisassemblyLine, 0, len(before)+1+afterCount)
	total = append(total, before...)
	total = append(total, DisassembleRange(currentPC, 1+afterCount, mmu)...)

	return total
}

// FormatDisassemblyLine formats a disassembly line for display
func FormatDisassemblyLine(line DisassemblyLine, isCurrentPC bool) string {
	prefix := " "
	if isCurrentPC {
		prefix = "→"
	}

	return fmt.Sprintf("%s0x%04X: %s", prefix, line.Address, line.Instruction)
}
