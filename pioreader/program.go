// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pioreader

import (
	"fmt"

	"github.com/GermanBionicSystems/airstation/singlewire"
	"periph.io/x/conn/v3/gpio"
)

// Kind is the opcode of an instruction.
type Kind uint8

// Opcodes used by assembled programs. The values are the top 3 bits of the
// encoded instruction.
const (
	JMP  Kind = 0
	WAIT Kind = 1
	IN   Kind = 2
	MOV  Kind = 5
)

const (
	jmpAlways    = 0
	jmpPin       = 6
	waitGPIOPin  = 1 // wait source "pin", relative to the in base
	inPins       = 0
	movY         = 2
	maxDelay     = 31
	maxInstrs    = 32
	polarityHigh = 4
)

// Instr is one PIO instruction.
type Instr struct {
	Kind  Kind
	Delay uint8
	Arg1  uint8
	Arg2  uint8
}

// Word returns the 16 bits encoding of i.
func (i Instr) Word() uint16 {
	return uint16(i.Kind&7)<<13 | uint16(i.Delay&0x1f)<<8 | uint16(i.Arg1&7)<<5 | uint16(i.Arg2&0x1f)
}

// Cycles returns the number of clock cycles i takes when it does not stall.
func (i Instr) Cycles() int {
	return 1 + int(i.Delay)
}

func (i Instr) String() string {
	var s string
	switch i.Kind {
	case JMP:
		if i.Arg1 == jmpPin {
			s = fmt.Sprintf("jmp pin %d", i.Arg2)
		} else {
			s = fmt.Sprintf("jmp %d", i.Arg2)
		}
	case WAIT:
		s = fmt.Sprintf("wait %d pin %d", i.Arg1>>2, i.Arg2)
	case IN:
		s = fmt.Sprintf("in pins %d", i.Arg2)
	case MOV:
		s = "nop"
	default:
		s = fmt.Sprintf("%#04x", i.Word())
	}
	if i.Delay != 0 {
		s += fmt.Sprintf(" [%d]", i.Delay)
	}
	return s
}

// Program is an assembled, relocatable PIO program. Jump targets are relative
// to the first instruction, the loader adds the load offset.
type Program struct {
	Instrs []Instr
	// WrapTarget and Wrap bound the sampling loop.
	WrapTarget uint8
	Wrap       uint8
	// WordBits is the autopush threshold.
	WordBits int
}

// Words returns the encoded instructions.
func (p *Program) Words() []uint16 {
	w := make([]uint16, len(p.Instrs))
	for i, in := range p.Instrs {
		w[i] = in.Word()
	}
	return w
}

func (p *Program) String() string {
	s := ""
	for i, in := range p.Instrs {
		if i == int(p.WrapTarget) {
			s += ".wrap_target\n"
		}
		s += fmt.Sprintf("%2d: %s\n", i, in)
		if i == int(p.Wrap) {
			s += ".wrap\n"
		}
	}
	return s
}

// Assemble returns the program reading frames described by cfg.
//
// One state machine cycle is one sample period. Start steps become waits on
// the input pin followed by their dead time. DutyCycle rules need Every of
// at least 3 periods and PulseWidth thresholds at most 32 periods, longer
// idles do not fit the delay field of the loop.
func Assemble(cfg *singlewire.Config) (*Program, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pioreader: %w", err)
	}
	a := &assembler{}
	for _, s := range cfg.Start {
		a.wait(s.Level, s.Dead)
	}
	loop := a.pc()
	switch b := cfg.Bit.(type) {
	case singlewire.DutyCycle:
		if b.Every < 3 || b.Every-3 > maxDelay {
			return nil, fmt.Errorf("pioreader: %w: duty cycle of %d periods out of [3, %d]", singlewire.ErrConfig, b.Every, maxDelay+3)
		}
		d := uint8(b.Every - 3)
		a.emit(Instr{Kind: JMP, Arg1: jmpPin, Arg2: loop + 3})
		a.emit(in1(0))
		a.emit(Instr{Kind: JMP, Delay: d, Arg1: jmpAlways, Arg2: loop})
		a.emit(in1(0))
		a.emit(Instr{Kind: JMP, Delay: d, Arg1: jmpAlways, Arg2: loop})
	case singlewire.PulseWidth:
		if b.Threshold-1 > maxDelay {
			return nil, fmt.Errorf("pioreader: %w: pulse width threshold of %d periods above %d", singlewire.ErrConfig, b.Threshold, maxDelay+1)
		}
		a.emit(waitFor(gpio.High, uint8(b.Threshold-1)))
		a.emit(Instr{Kind: JMP, Arg1: jmpPin, Arg2: loop + 5})
		a.emit(in1(0))
		a.emit(waitFor(gpio.Low, 0))
		a.emit(Instr{Kind: JMP, Arg1: jmpAlways, Arg2: loop})
		a.emit(in1(0))
		a.emit(waitFor(gpio.Low, 0))
		a.emit(Instr{Kind: JMP, Arg1: jmpAlways, Arg2: loop})
	default:
		return nil, fmt.Errorf("pioreader: %w: bit rule %v has no PIO equivalent", singlewire.ErrConfig, cfg.Bit)
	}
	if len(a.instrs) > maxInstrs {
		return nil, fmt.Errorf("pioreader: %w: program needs %d instructions, at most %d fit", singlewire.ErrConfig, len(a.instrs), maxInstrs)
	}
	return &Program{Instrs: a.instrs, WrapTarget: loop, Wrap: a.pc() - 1, WordBits: cfg.WordBits}, nil
}

type assembler struct {
	instrs []Instr
}

func (a *assembler) pc() uint8 {
	return uint8(len(a.instrs))
}

func (a *assembler) emit(i Instr) {
	a.instrs = append(a.instrs, i)
}

// wait blocks on l then idles dead cycles, padding with nops when the delay
// field is too short.
func (a *assembler) wait(l gpio.Level, dead int) {
	d := dead
	if d > maxDelay {
		d = maxDelay
	}
	a.emit(waitFor(l, uint8(d)))
	for r := dead - d; r > 0; {
		n := r - 1
		if n > maxDelay {
			n = maxDelay
		}
		a.emit(Instr{Kind: MOV, Delay: uint8(n), Arg1: movY, Arg2: movY})
		r -= n + 1
	}
}

func waitFor(l gpio.Level, delay uint8) Instr {
	p := uint8(waitGPIOPin)
	if l {
		p |= polarityHigh
	}
	return Instr{Kind: WAIT, Delay: delay, Arg1: p}
}

func in1(delay uint8) Instr {
	return Instr{Kind: IN, Delay: delay, Arg1: inPins, Arg2: 1}
}
