package registers

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUndefinedAddress is returned when a register operation touches an address that was never defined.
var ErrUndefinedAddress = errors.New("undefined register address")

// Hook handles a write to one control address. It receives the address and the value written by the host and returns
// the value that should actually be stored.
type Hook func(address uint16, value uint16) uint16

// Table is a sparse map of 16 bit register words, keyed by address.
//
// Addresses are reserved once with DefineField during initialisation and the set of addresses never changes afterwards,
// only the values held at them. A Table is not safe for concurrent use, all access is expected to come from one goroutine.
type Table struct {
	words map[uint16]uint16
	hooks map[uint16]Hook
}

func NewTable() *Table {
	return &Table{
		words: make(map[uint16]uint16),
		hooks: make(map[uint16]Hook),
	}
}

// DefineField reserves `wordSpan` consecutive words starting at `address`. The first word takes `rawInitialValue` and the
// remaining words are zeroed. Returns false, without reserving anything, if any word in the span is already defined or if
// the span would run past the end of the address space.
func (t *Table) DefineField(address uint16, rawInitialValue uint16, wordSpan uint16) bool {
	if wordSpan == 0 || int(address)+int(wordSpan) > 0x10000 {
		return false
	}

	for i := uint16(0); i < wordSpan; i++ {
		if _, exists := t.words[address+i]; exists {
			return false
		}
	}

	for i := uint16(0); i < wordSpan; i++ {
		t.words[address+i] = 0
	}
	t.words[address] = rawInitialValue

	return true
}

// IsDefined returns true if the address has been reserved.
func (t *Table) IsDefined(address uint16) bool {
	_, exists := t.words[address]
	return exists
}

// Read returns the raw word currently stored at `address`.
func (t *Table) Read(address uint16) (uint16, bool) {
	val, exists := t.words[address]
	return val, exists
}

// ReadRange returns `count` consecutive words starting at `address`. Every address in the range must be defined.
func (t *Table) ReadRange(address uint16, count uint16) ([]uint16, error) {
	if int(address)+int(count) > 0x10000 {
		return nil, fmt.Errorf("read %d words at %d: %w", count, address, ErrUndefinedAddress)
	}

	vals := make([]uint16, count)
	for i := uint16(0); i < count; i++ {
		val, exists := t.words[address+i]
		if !exists {
			return nil, fmt.Errorf("read address %d: %w", address+i, ErrUndefinedAddress)
		}
		vals[i] = val
	}
	return vals, nil
}

// Addresses returns all of the defined addresses in ascending order.
func (t *Table) Addresses() []uint16 {
	addrs := make([]uint16, 0, len(t.words))
	for addr := range t.words {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// WriteU16 stores one unsigned word. Returns false if the address is not defined.
func (t *Table) WriteU16(address uint16, value uint16) bool {
	if _, exists := t.words[address]; !exists {
		return false
	}
	t.words[address] = value
	return true
}

// WriteS16 stores one signed word using two's complement.
func (t *Table) WriteS16(address uint16, value int16) bool {
	return t.WriteU16(address, uint16(value))
}

// WriteU32 splits an unsigned 32 bit value over two words, high word first.
func (t *Table) WriteU32(address uint16, value uint32) bool {
	ok := t.WriteU16(address, uint16(value>>16))
	ok = t.WriteU16(address+1, uint16(value)) && ok
	return ok
}

// WriteS32 splits a signed 32 bit value over two words, LOW word first.
//
// This is the opposite word order to WriteU32. Hosts in the field read existing S32 fields this way, so the order is kept
// even though it looks like an inconsistency in the register layout.
func (t *Table) WriteS32(address uint16, value int32) bool {
	ok := t.WriteU16(address, uint16(uint32(value)))
	ok = t.WriteU16(address+1, uint16(uint32(value)>>16)) && ok
	return ok
}

// WriteString packs `text` into a field of `byteSize` bytes, two characters per word with the first character in the
// high byte. The text is truncated to the field and the remaining words of the field are zeroed.
func (t *Table) WriteString(address uint16, text string, byteSize uint16) bool {
	b := []byte(text)
	if len(b) > int(byteSize) {
		b = b[:byteSize]
	}

	ok := true
	numWords := byteSize / 2
	for i := uint16(0); i < numWords; i++ {
		var word uint16
		hi := int(i) * 2
		if hi < len(b) {
			word = uint16(b[hi]) << 8
		}
		if hi+1 < len(b) {
			word |= uint16(b[hi+1])
		}
		ok = t.WriteU16(address+i, word) && ok
	}
	return ok
}

// Hook attaches a write handler to a control address. There is at most one handler per address, attaching a second one
// replaces the first.
func (t *Table) Hook(address uint16, hook Hook) {
	t.hooks[address] = hook
}

// HostWrite stores a value written by an external host. If a hook is attached to the address then it runs to completion
// first and its returned value is stored instead.
func (t *Table) HostWrite(address uint16, value uint16) error {
	if _, exists := t.words[address]; !exists {
		return fmt.Errorf("write address %d: %w", address, ErrUndefinedAddress)
	}

	if hook, found := t.hooks[address]; found {
		value = hook(address, value)
	}

	t.words[address] = value
	return nil
}
