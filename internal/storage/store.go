package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/srmsim/internal/srm"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var (
	ErrRunNotFound       = errors.New("storage: run not found")
	ErrIncompleteSamples = errors.New("storage: incomplete samples file")
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Timestamp           time.Time          `json:"timestamp"`
	Seed                uint64             `json:"seed"`
	Samples             int                `json:"samples"`
	Variables           int                `json:"variables"`
	Dimensions          int                `json:"dimensions"`
	Shape               []int              `json:"shape"`
	Method              string             `json:"method"`
	Phases              string             `json:"phases"`
	TimeIncrements      []float64          `json:"dt"`
	FrequencyIncrements []float64          `json:"dw"`
	FrequencyPoints     []int              `json:"nw"`
	Elapsed             float64            `json:"elapsed_seconds"`
	Metrics             map[string]float64 `json:"metrics"`
	// LineTargets holds, per variable, the expected periodogram along the
	// last grid axis.
	LineTargets [][]float64 `json:"line_targets,omitempty"`
}

// Save writes meta and the sample values under a new run directory and
// returns its id. Count, Variables and Shape are taken from samples.
func (s *Store) Save(meta RunMetadata, samples *srm.Samples) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.Name == "" {
		meta.Name = "run"
	}
	meta.Samples = samples.Count
	meta.Variables = samples.Variables
	meta.Shape = append([]int(nil), samples.Shape...)

	runID, runDir, err := s.newRunDir(meta.Name, meta.Timestamp)
	if err != nil {
		return "", err
	}
	meta.ID = runID

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, samples); err != nil {
		return "", err
	}
	return runID, csvFile.Sync()
}

func (s *Store) newRunDir(name string, ts time.Time) (string, string, error) {
	base := fmt.Sprintf("%s_%d", name, ts.Unix())
	runID := base
	for i := 2; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s-%d", base, i)
	}
}

// List returns the metadata of every stored run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSamples reads back the sample values of a run.
func (s *Store) LoadSamples(runID string) (*srm.Samples, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadCSV(file, meta.Samples, meta.Variables, meta.Shape)
}

// SamplesPath is the location of the CSV file of a run.
func (s *Store) SamplesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, samplesFile)
}
