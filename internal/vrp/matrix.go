package vrp

// Matrix is a dense square matrix indexed by location rank. Entries are in
// user units; missing edges hold InfiniteUserCost.
type Matrix struct {
	n    int
	data []int64
}

// NewMatrix returns an n x n matrix with every entry set to fill.
func NewMatrix(n int, fill int64) *Matrix {
	m := &Matrix{n: n, data: make([]int64, n*n)}
	if fill != 0 {
		for i := range m.data {
			m.data[i] = fill
		}
	}
	return m
}

// MatrixFromRows builds a matrix from row slices, which must form a square.
func MatrixFromRows(rows [][]int64) (*Matrix, error) {
	n := len(rows)
	m := NewMatrix(n, 0)
	for i, row := range rows {
		if len(row) != n {
			return nil, inputErrorf("unexpected matrix line length")
		}
		copy(m.data[i*n:(i+1)*n], row)
	}
	return m, nil
}

// Size returns the matrix dimension.
func (m *Matrix) Size() int { return m.n }

// At returns the entry at (i, j).
func (m *Matrix) At(i, j int) int64 { return m.data[i*m.n+j] }

// Set stores v at (i, j).
func (m *Matrix) Set(i, j int, v int64) { m.data[i*m.n+j] = v }
