package storage_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/srmsim/internal/srm"
	"github.com/san-kum/srmsim/internal/storage"
)

func testSamples() *srm.Samples {
	s := &srm.Samples{
		Count:     2,
		Variables: 2,
		Shape:     []int{2, 3},
		Data:      make([]float64, 2*2*6),
	}
	for i := range s.Data {
		s.Data[i] = float64(i)*0.1 - 1.0/3
	}
	return s
}

var _ = Describe("Store", func() {
	var (
		dir string
		st  *storage.Store
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		st = storage.New(dir)
		Expect(st.Init()).To(Succeed())
	})

	It("lists nothing in an empty directory", func() {
		runs, err := st.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(BeEmpty())
	})

	It("lists nothing when the directory does not exist", func() {
		runs, err := storage.New(filepath.Join(dir, "missing")).List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(BeEmpty())
	})

	Context("after saving a run", func() {
		var (
			runID   string
			samples *srm.Samples
		)

		BeforeEach(func() {
			samples = testSamples()
			var err error
			runID, err = st.Save(storage.RunMetadata{
				Name:    "test",
				Seed:    42,
				Method:  "fft",
				Metrics: map[string]float64{"variance": 1.5},
			}, samples)
			Expect(err).NotTo(HaveOccurred())
		})

		It("creates the run files", func() {
			Expect(runID).To(HavePrefix("test_"))
			Expect(filepath.Join(dir, runID, "metadata.json")).To(BeAnExistingFile())
			Expect(filepath.Join(dir, runID, "samples.csv")).To(BeAnExistingFile())
			Expect(st.SamplesPath(runID)).To(Equal(filepath.Join(dir, runID, "samples.csv")))
		})

		It("loads the metadata", func() {
			meta, err := st.Load(runID)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.ID).To(Equal(runID))
			Expect(meta.Seed).To(Equal(uint64(42)))
			Expect(meta.Samples).To(Equal(2))
			Expect(meta.Variables).To(Equal(2))
			Expect(meta.Shape).To(Equal([]int{2, 3}))
			Expect(meta.Metrics).To(HaveKeyWithValue("variance", 1.5))
		})

		It("loads the samples exactly", func() {
			loaded, err := st.LoadSamples(runID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Dims()).To(Equal(samples.Dims()))
			Expect(loaded.Data).To(Equal(samples.Data))
		})

		It("gives runs saved in the same second distinct ids", func() {
			second, err := st.Save(storage.RunMetadata{Name: "test", Timestamp: time.Now()}, samples)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).NotTo(Equal(runID))

			runs, err := st.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(2))
		})

		It("skips directories without metadata", func() {
			Expect(os.Mkdir(filepath.Join(dir, "junk"), 0755)).To(Succeed())
			runs, err := st.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(1))
		})
	})

	It("reports unknown runs", func() {
		_, err := st.Load("nope")
		Expect(err).To(MatchError(storage.ErrRunNotFound))
		_, err = st.LoadSamples("nope")
		Expect(err).To(MatchError(storage.ErrRunNotFound))
	})
})

var _ = Describe("CSV", func() {
	It("writes one row per value with grid indices", func() {
		var buf bytes.Buffer
		Expect(storage.WriteCSV(&buf, testSamples())).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(1 + 24))
		Expect(lines[0]).To(Equal("sample,variable,t0,t1,value"))
		Expect(lines[4]).To(HavePrefix("0,0,1,0,"))
		Expect(lines[24]).To(HavePrefix("1,1,1,2,"))
	})

	It("rejects out of range indices", func() {
		doc := "sample,variable,t0,value\n0,3,0,1.5\n"
		_, err := storage.ReadCSV(strings.NewReader(doc), 1, 1, []int{2})
		Expect(err).To(MatchError(ContainSubstring("out of range")))
	})

	It("rejects malformed values", func() {
		doc := "sample,variable,t0,value\n0,0,0,abc\n"
		_, err := storage.ReadCSV(strings.NewReader(doc), 1, 1, []int{2})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a truncated file", func() {
		var buf bytes.Buffer
		Expect(storage.WriteCSV(&buf, testSamples())).To(Succeed())
		lines := strings.SplitAfter(buf.String(), "\n")
		truncated := strings.Join(lines[:len(lines)/2], "")

		_, err := storage.ReadCSV(strings.NewReader(truncated), 2, 2, []int{2, 3})
		Expect(err).To(MatchError(storage.ErrIncompleteSamples))
		Expect(err).To(MatchError(ContainSubstring("of 24 values")))
	})

	It("rejects a header-only file", func() {
		_, err := storage.ReadCSV(strings.NewReader("sample,variable,t0,value\n"), 1, 1, []int{2})
		Expect(err).To(MatchError(storage.ErrIncompleteSamples))
	})

	It("rejects duplicated values", func() {
		doc := "sample,variable,t0,value\n0,0,0,1\n0,0,0,2\n"
		_, err := storage.ReadCSV(strings.NewReader(doc), 1, 1, []int{2})
		Expect(err).To(MatchError(storage.ErrIncompleteSamples))
	})
})

var _ = Describe("ExportJSON", func() {
	It("writes metadata, dims and data", func() {
		var buf bytes.Buffer
		samples := testSamples()
		Expect(storage.ExportJSON(&buf, storage.RunMetadata{ID: "x", Name: "n"}, samples)).To(Succeed())

		var out storage.ExportData
		Expect(json.Unmarshal(buf.Bytes(), &out)).To(Succeed())
		Expect(out.Metadata.ID).To(Equal("x"))
		Expect(out.Dims).To(Equal([]int{2, 2, 2, 3}))
		Expect(out.Data).To(Equal(samples.Data))
	})
})
