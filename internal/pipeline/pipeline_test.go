package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `; trivial doubling routine
start:
	call double
	ret

double:
	add ax, ax
	ret
`

func TestRunProducesAnnotatedOutput(t *testing.T) {
	result := Run([]byte(sampleSource))

	require.NotEmpty(t, result.Output)
	assert.True(t, strings.Contains(result.Output, "int main(){"))
	assert.Equal(t, 4, result.Stats.Instructions)
	assert.GreaterOrEqual(t, result.Stats.DiscoveredEntry, 1)
	assert.Equal(t, 0, result.Stats.GarbageOperand)
}

func TestRunFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "in.asm")
	outputPath := filepath.Join(dir, "out.c")
	require.NoError(t, os.WriteFile(inputPath, []byte(sampleSource), 0o644))

	result, err := RunFile(inputPath, outputPath)
	require.NoError(t, err)
	require.NotNil(t, result)

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, result.Output, string(written))
}

func TestRunFileMissingInputReturnsWrappedError(t *testing.T) {
	dir := t.TempDir()
	_, err := RunFile(filepath.Join(dir, "nope.asm"), filepath.Join(dir, "out.c"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read")
}

func TestGarbageOperandIsCounted(t *testing.T) {
	result := Run([]byte("mov ax, [bx+2\n"))
	assert.Equal(t, 1, result.Stats.GarbageOperand)
}
