package readfiles

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfdali/two-phase-flow/types"
)

func TestReadSU2(t *testing.T) {
	{ // Test reading the file structure
		reader := bufio.NewReader(bytes.NewReader(inputFile))
		dim, err := readNumber(reader)
		require.NoError(t, err)
		assert.Equal(t, 2, dim)
		nelem, err := readNumber(reader)
		require.NoError(t, err)
		assert.Equal(t, 22, nelem)
		require.NoError(t, skipLines(22, reader))
		npts, err := readNumber(reader)
		require.NoError(t, err)
		assert.Equal(t, 18, npts)
		require.NoError(t, skipLines(18, reader))
		nmark, err := readNumber(reader)
		require.NoError(t, err)
		assert.Equal(t, 4, nmark)
		labels := []string{"periodic-left", "periodic-right", "top", "bottom"}
		nptsBC := []int{2, 2, 4, 4}
		for n := 0; n < nmark; n++ {
			mark, err := readLabel(reader)
			require.NoError(t, err)
			assert.Equal(t, labels[n], mark)
			nm, err := readNumber(reader)
			require.NoError(t, err)
			assert.Equal(t, nptsBC[n], nm)
			require.NoError(t, skipLines(nm, reader))
		}
	}
	{ // Test read elements, vertices and markers
		grid, err := ParseSU2(bufio.NewReader(bytes.NewReader(inputFile)))
		require.NoError(t, err)
		assert.Equal(t, 22, len(grid.Tris))
		assert.Equal(t, [3]int{15, 11, 17}, grid.Tris[21])
		assert.Equal(t, 18, len(grid.Points))
		assert.Equal(t, -7.100939331382065, grid.Points[17].X[0])
		assert.Equal(t, 2.889910324036197, grid.Points[17].X[1])
		assert.Equal(t, []string{"periodic-left", "periodic-right", "top", "bottom"}, grid.Markers)
		assert.Equal(t, [][2]int{{3, 11}, {11, 0}}, grid.BCEdges["periodic-left"])

		bcEdges, tags := grid.TaggedEdges()
		assert.Equal(t, types.BCTAG(5), tags["periodic-left"])
		assert.Equal(t, types.BCTAG(6), tags["periodic-right"])
		assert.Equal(t, types.BC_Top, tags["top"])
		assert.Equal(t, types.BC_Bottom, tags["bottom"])
		assert.Equal(t, 4, len(bcEdges[types.BC_Bottom]))
	}
	{ // Build the facet connectivity from the grid
		grid, err := ParseSU2(bufio.NewReader(bytes.NewReader(inputFile)))
		require.NoError(t, err)
		tm, _, err := grid.TriMesh()
		require.NoError(t, err)
		assert.Equal(t, 39, tm.NumFacets())
		assert.Equal(t, 12, len(tm.BoundaryFacets))
		var area float64
		for _, tri := range tm.Tris {
			area += tri.Area
		}
		assert.InDelta(t, 200., area, 1.e-8)
	}
	{ // Read from disk
		dir := t.TempDir()
		fileName := filepath.Join(dir, "grid.su2")
		require.NoError(t, os.WriteFile(fileName, inputFile, 0644))
		grid, err := ReadSU2(fileName, false)
		require.NoError(t, err)
		assert.Equal(t, 2, grid.Dim)
		_, err = ReadSU2(filepath.Join(dir, "missing.su2"), false)
		assert.Error(t, err)
	}
	{ // Malformed input
		_, err := ParseSU2(bufio.NewReader(bytes.NewReader([]byte("NDIME= 3\n"))))
		assert.Error(t, err)
		_, err = ParseSU2(bufio.NewReader(bytes.NewReader([]byte("NDIME= 2\nNELEM= 1\n9 0 1 2 3 0\n"))))
		assert.Error(t, err)
		_, err = ParseSU2(bufio.NewReader(bytes.NewReader([]byte("NDIME= 2\nNELEM= 2\n5 0 1 2 0\n"))))
		assert.Error(t, err)
		_, err = ParseSU2(bufio.NewReader(bytes.NewReader([]byte("NDIME 2\n"))))
		assert.Error(t, err)
	}
}

var (
	inputFile = []byte(` %This is an example input file in SU2 format, output from gmsh
% Comments can appear outside of data areas
NDIME= 2
% Comments can appear outside of data areas
NELEM= 22
5 5 6 13 0
5 9 10 12 1
5 12 5 13 2
5 9 12 13 3
5 13 6 14 4
5 12 10 15 5
5 8 9 13 6
5 4 5 12 7
5 1 7 14 8
5 6 1 14 9
5 3 11 15 10
5 10 3 15 11
5 8 13 16 12
5 4 12 17 13
5 13 14 16 14
5 12 15 17 15
5 7 2 16 16
5 11 0 17 17
5 2 8 16 18
5 0 4 17 19
5 14 7 16 20
5 15 11 17 21
% Comments can appear outside of data areas
NPOIN= 18
-10 0 0
10 0 1
10 10 2
-10 10 3
-5.000000000004944 0 4
-1.231725832440134e-11 0 5
4.99999999999384 0 6
10 4.999999999992398 7
5.000000000004944 10 8
1.231725832440134e-11 10 9
-4.99999999999384 10 10
-10 5 11
-2.500000000008632 4.330127018915808 12
2.50000000000863 5.669872981084192 13
6.712741669205853 3.668411415814691 14
-6.712741669205681 6.331588584184096 15
7.100939331384343 7.110089675963254 16
-7.100939331382065 2.889910324036197 17
NMARK= 4
% Comments can appear outside of data areas
MARKER_TAG= periodic-left
% Comments can appear outside of data areas
MARKER_ELEMS= 2
3 3 11
3 11 0
% Comments can appear outside of data areas
MARKER_TAG= periodic-right
MARKER_ELEMS= 2
3 1 7
3 7 2
% Comments can appear outside of data areas
MARKER_TAG= top
MARKER_ELEMS= 4
3 2 8
3 8 9
3 9 10
3 10 3
MARKER_TAG= bottom
% Comments can appear outside of data areas
MARKER_ELEMS= 4
3 0 4
3 4 5
3 5 6
3 6 1
% Comments can appear outside of data areas
`)
)
