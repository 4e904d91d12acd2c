package imsm

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registryWidget struct {
	Entry
}

func TestLookupMachineRejectsReservedAndOutOfRange(t *testing.T) {
	assert.Nil(t, lookupMachine(0))
	assert.Nil(t, lookupMachine(MaxMachines))
	assert.Nil(t, lookupMachine(MaxMachines+1))
}

func TestRegisterMachineReusesFreedIndex(t *testing.T) {
	arena := make([]byte, unsafe.Sizeof(registryWidget{})*2)
	m1, err := Init[registryWidget](unsafe.Pointer(&arena[0]), uintptr(len(arena)))
	require.NoError(t, err)
	idx1 := m1.Index()
	m1.Close()

	arena2 := make([]byte, unsafe.Sizeof(registryWidget{})*2)
	m2, err := Init[registryWidget](unsafe.Pointer(&arena2[0]), uintptr(len(arena2)))
	require.NoError(t, err)
	defer m2.Close()

	assert.Equal(t, idx1, m2.Index())
}
