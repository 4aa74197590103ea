package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mfdali/two-phase-flow/geometry2D"
	"github.com/mfdali/two-phase-flow/types"
)

// From here: https://su2code.github.io/docs_v7/Mesh-File/
type SU2ElementType uint8

const (
	ELType_LINE          SU2ElementType = 3
	ELType_Triangle                     = 5
	ELType_Quadrilateral                = 9
)

// SU2Grid holds a two dimensional triangle grid read from an SU2 mesh file
type SU2Grid struct {
	Dim     int
	Points  []geometry2D.Point
	Tris    [][3]int
	Markers []string            // Marker labels in file order
	BCEdges map[string][][2]int // Boundary edges keyed by marker label
}

func ReadSU2(filename string, verbose bool) (grid *SU2Grid, err error) {
	var (
		file *os.File
	)
	if verbose {
		fmt.Printf("Reading SU2 file named: %s\n", filename)
	}
	if file, err = os.Open(filename); err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()
	if grid, err = ParseSU2(bufio.NewReader(file)); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if verbose {
		fmt.Printf("Read %d dimensional grid: %d triangles, %d vertices, %d markers\n",
			grid.Dim, len(grid.Tris), len(grid.Points), len(grid.Markers))
	}
	return
}

func ParseSU2(reader *bufio.Reader) (grid *SU2Grid, err error) {
	grid = &SU2Grid{}
	if grid.Dim, err = readNumber(reader); err != nil {
		return nil, err
	}
	if grid.Dim != 2 {
		return nil, fmt.Errorf("only two dimensional grids are supported, file has NDIME= %d", grid.Dim)
	}
	if grid.Tris, err = readElements(reader); err != nil {
		return nil, err
	}
	if grid.Points, err = readVertices(reader); err != nil {
		return nil, err
	}
	if grid.Markers, grid.BCEdges, err = readBCs(reader); err != nil {
		return nil, err
	}
	return
}

// TaggedEdges converts marker labels to boundary tags. Labels known to types.NewBCTAG keep their tag,
// the others are numbered after BC_Top in file order.
func (g *SU2Grid) TaggedEdges() (bcEdges map[types.BCTAG][][2]int, tags map[string]types.BCTAG) {
	var (
		next = types.BC_Top + 1
	)
	bcEdges = make(map[types.BCTAG][][2]int, len(g.Markers))
	tags = make(map[string]types.BCTAG, len(g.Markers))
	for _, label := range g.Markers {
		tag, err := types.NewBCTAG(label)
		if err != nil {
			tag = next
			next++
		}
		tags[label] = tag
		bcEdges[tag] = append(bcEdges[tag], g.BCEdges[label]...)
	}
	return
}

// TriMesh builds the facet connectivity of the grid
func (g *SU2Grid) TriMesh() (tm *geometry2D.TriMesh, tags map[string]types.BCTAG, err error) {
	var bcEdges map[types.BCTAG][][2]int
	bcEdges, tags = g.TaggedEdges()
	tm, err = geometry2D.NewTriMesh(g.Points, g.Tris, bcEdges)
	return
}

func readBCs(reader *bufio.Reader) (labels []string, BCEdges map[string][][2]int, err error) {
	var (
		nType, NBCs, nEdges int
		v1, v2              int
		label, line         string
	)
	if NBCs, err = readNumber(reader); err != nil {
		return
	}
	BCEdges = make(map[string][][2]int, NBCs)
	for n := 0; n < NBCs; n++ {
		if label, err = readLabel(reader); err != nil {
			return
		}
		if _, ok := BCEdges[label]; ok {
			err = fmt.Errorf("duplicate boundary condition found with label: [%s]", label)
			return
		}
		labels = append(labels, label)
		if nEdges, err = readNumber(reader); err != nil {
			return
		}
		BCEdges[label] = make([][2]int, nEdges)
		for i := 0; i < nEdges; i++ {
			if line, err = getLine(reader); err != nil {
				return
			}
			if _, err = fmt.Sscanf(line, "%d %d %d", &nType, &v1, &v2); err != nil {
				err = fmt.Errorf("bad marker element [%s]: %w", line, err)
				return
			}
			if SU2ElementType(nType) != ELType_LINE {
				err = fmt.Errorf("BCs should only contain line elements in 2D, have type %d", nType)
				return
			}
			BCEdges[label][i] = [2]int{v1, v2}
		}
	}
	return
}

func readVertices(reader *bufio.Reader) (pts []geometry2D.Point, err error) {
	var (
		n, Nv int
		x, y  float64
		line  string
	)
	if Nv, err = readNumber(reader); err != nil {
		return
	}
	pts = make([]geometry2D.Point, Nv)
	for i := 0; i < Nv; i++ {
		if line, err = getLine(reader); err != nil {
			return
		}
		if n, err = fmt.Sscanf(line, "%f %f", &x, &y); err != nil || n != 2 {
			err = fmt.Errorf("unable to read coordinates from [%s]", line)
			return
		}
		pts[i].X = [2]float64{x, y}
	}
	return
}

func readElements(reader *bufio.Reader) (tris [][3]int, err error) {
	var (
		n, K       int
		nType      int
		v1, v2, v3 int
		line       string
	)
	if K, err = readNumber(reader); err != nil {
		return
	}
	tris = make([][3]int, K)
	for k := 0; k < K; k++ {
		if line, err = getLine(reader); err != nil {
			return
		}
		if n, err = fmt.Sscanf(line, "%d %d %d %d", &nType, &v1, &v2, &v3); err != nil || n != 4 {
			err = fmt.Errorf("unable to read vertices from [%s]", line)
			return
		}
		if SU2ElementType(nType) != ELType_Triangle {
			err = fmt.Errorf("unable to deal with non-triangular elements right now, have type %d", nType)
			return
		}
		tris[k] = [3]int{v1, v2, v3}
	}
	return
}

func getToken(reader *bufio.Reader) (token string, err error) {
	var (
		line string
	)
	if line, err = getLineNoComments(reader); err != nil {
		return
	}
	ind := strings.Index(line, "=")
	if ind < 0 {
		err = fmt.Errorf("badly formed input line [%s], should have an =", line)
		return
	}
	token = line[ind+1:]
	return
}

func readLabel(reader *bufio.Reader) (label string, err error) {
	var (
		token string
	)
	if token, err = getToken(reader); err != nil {
		return
	}
	if _, err = fmt.Sscanf(token, "%s", &label); err != nil {
		err = fmt.Errorf("unable to read label from token: [%s]", token)
		return
	}
	label = strings.Trim(label, " ")
	return
}

func readNumber(reader *bufio.Reader) (num int, err error) {
	var (
		token string
	)
	if token, err = getToken(reader); err != nil {
		return
	}
	if _, err = fmt.Sscanf(token, "%d", &num); err != nil {
		err = fmt.Errorf("unable to read number from token: [%s]", token)
	}
	return
}

func getLineNoComments(reader *bufio.Reader) (line string, err error) {
	for {
		if line, err = getLine(reader); err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if len(line) != 0 && !strings.HasPrefix(line, "%") {
			return
		}
	}
}

func getLine(reader *bufio.Reader) (line string, err error) {
	line, err = reader.ReadString('\n')
	if err == io.EOF && len(line) != 0 {
		err = nil
	}
	if err != nil {
		if err == io.EOF {
			err = fmt.Errorf("early end of file")
		}
		return
	}
	line = strings.TrimRight(line, "\r\n")
	return
}

func skipLines(n int, reader *bufio.Reader) (err error) {
	for i := 0; i < n; i++ {
		if _, err = getLine(reader); err != nil {
			return
		}
	}
	return
}
