package srm

// Samples holds realizations laid out as [sample][variable][t0][t1]...
type Samples struct {
	Count     int
	Variables int
	Shape     []int
	Data      []float64
	// Seed is the phase seed the realizations were drawn with.
	Seed uint64

	fieldSize int
}

func newSamples(count, variables int, shape []int) *Samples {
	size := product(shape)
	return &Samples{
		Count:     count,
		Variables: variables,
		Shape:     append([]int(nil), shape...),
		Data:      make([]float64, count*variables*size),
		fieldSize: size,
	}
}

// Dims returns [Count, Variables, nt0, nt1, ...].
func (s *Samples) Dims() []int {
	return append([]int{s.Count, s.Variables}, s.Shape...)
}

// FieldSize is the number of grid points of one variable in one realization.
func (s *Samples) FieldSize() int {
	if s.fieldSize == 0 {
		s.fieldSize = product(s.Shape)
	}
	return s.fieldSize
}

// Field returns the flattened field of variable v in realization i. The
// slice aliases Data.
func (s *Samples) Field(i, v int) []float64 {
	n := s.FieldSize()
	off := (i*s.Variables + v) * n
	return s.Data[off : off+n]
}

// At returns the value of variable v in realization i at time index idx.
func (s *Samples) At(i, v int, idx []int) float64 {
	k := 0
	for ax, x := range idx {
		k = k*s.Shape[ax] + x
	}
	return s.Field(i, v)[k]
}
