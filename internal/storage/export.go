package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/srmsim/internal/srm"
)

// WriteCSV writes one row per value: sample, variable, grid index per axis,
// value.
func WriteCSV(w io.Writer, samples *srm.Samples) error {
	cw := csv.NewWriter(w)

	header := []string{"sample", "variable"}
	for ax := range samples.Shape {
		header = append(header, fmt.Sprintf("t%d", ax))
	}
	header = append(header, "value")
	if err := cw.Write(header); err != nil {
		return err
	}

	idx := make([]int, len(samples.Shape))
	row := make([]string, len(header))
	for i := 0; i < samples.Count; i++ {
		for v := 0; v < samples.Variables; v++ {
			field := samples.Field(i, v)
			for k := range idx {
				idx[k] = 0
			}
			for _, val := range field {
				row[0] = strconv.Itoa(i)
				row[1] = strconv.Itoa(v)
				for ax, c := range idx {
					row[2+ax] = strconv.Itoa(c)
				}
				row[len(row)-1] = strconv.FormatFloat(val, 'g', -1, 64)
				if err := cw.Write(row); err != nil {
					return err
				}
				next(idx, samples.Shape)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// next advances a row-major multi-index.
func next(idx, shape []int) {
	for ax := len(idx) - 1; ax >= 0; ax-- {
		idx[ax]++
		if idx[ax] < shape[ax] {
			return
		}
		idx[ax] = 0
	}
}

// ReadCSV parses the output of WriteCSV into a sample set of the given
// layout. Every value of the layout must appear exactly once.
func ReadCSV(r io.Reader, count, variables int, shape []int) (*srm.Samples, error) {
	size := 1
	for _, n := range shape {
		size *= n
	}
	out := &srm.Samples{
		Count:     count,
		Variables: variables,
		Shape:     append([]int(nil), shape...),
		Data:      make([]float64, count*variables*size),
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3 + len(shape)
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("samples header: %w", err)
	}

	ints := make([]int, 2+len(shape))
	seen := make([]bool, len(out.Data))
	records := 0
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for k := range ints {
			if ints[k], err = strconv.Atoi(record[k]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		val, err := strconv.ParseFloat(record[len(record)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		i, v := ints[0], ints[1]
		if i < 0 || i >= count || v < 0 || v >= variables {
			return nil, fmt.Errorf("line %d: sample %d variable %d out of range", line, i, v)
		}
		flat := 0
		for ax, c := range ints[2:] {
			if c < 0 || c >= shape[ax] {
				return nil, fmt.Errorf("line %d: index %d out of range on axis %d", line, c, ax)
			}
			flat = flat*shape[ax] + c
		}
		at := (i*variables+v)*size + flat
		if seen[at] {
			return nil, fmt.Errorf("line %d: %w: duplicate value for sample %d variable %d", line, ErrIncompleteSamples, i, v)
		}
		seen[at] = true
		out.Data[at] = val
		records++
	}
	if records != len(out.Data) {
		return nil, fmt.Errorf("%w: %d of %d values", ErrIncompleteSamples, records, len(out.Data))
	}
	return out, nil
}

type ExportData struct {
	Metadata RunMetadata `json:"metadata"`
	Dims     []int       `json:"dims"`
	Data     []float64   `json:"data"`
}

// ExportJSON writes meta and the flattened sample values. Data is laid out
// row-major over Dims.
func ExportJSON(w io.Writer, meta RunMetadata, samples *srm.Samples) error {
	data := ExportData{
		Metadata: meta,
		Dims:     samples.Dims(),
		Data:     samples.Data,
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
