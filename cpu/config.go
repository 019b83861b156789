package cpu

import (
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/cvm/memory"
)

const (
	DEFAULT_MEMORY_EXPONENT = 16      // 64 KiB of memory
	DEFAULT_REGISTER_COUNT  = 10      // r0-r9
	MAX_REGISTER_COUNT      = 1 << 16 // Largest register file.
)

// Config sizes the CPU at construction.
type Config struct {
	MemoryExponent uint // Memory bank is (1 << MemoryExponent) bytes.
	RegisterCount  uint // Number of registers.
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MemoryExponent: DEFAULT_MEMORY_EXPONENT,
		RegisterCount:  DEFAULT_REGISTER_COUNT,
	}
}

// MemorySize returns the bank size in bytes.
func (config Config) MemorySize() uint64 {
	return uint64(1) << config.MemoryExponent
}

// Validate checks the configuration limits.
func (config Config) Validate() (err error) {
	if config.MemoryExponent > memory.MAX_EXPONENT {
		err = errors.Join(ErrConfig, memory.ErrBankSize)
		return
	}

	if config.RegisterCount > MAX_REGISTER_COUNT {
		err = errors.Join(ErrConfig, errors.New(f("register count %d above %d", config.RegisterCount, MAX_REGISTER_COUNT)))
		return
	}

	return
}

// Defines returns the configuration as assembler equates.
func (config Config) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"MEMORY_SIZE":    fmt.Sprintf("%#x", config.MemorySize()),
		"REGISTER_COUNT": fmt.Sprintf("%d", config.RegisterCount),
	})
}
