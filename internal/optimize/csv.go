package optimize

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/constantine-labs/backtest/internal/engineerr"
	"github.com/constantine-labs/backtest/internal/hyperparam"
)

// ResultStore is the append-only, semicolon-delimited result CSV at
// `storage/optimize/csv/{study}.csv` (spec §6): header
// `<hp1>;<hp2>;...;score`, one row per scored or rules-rejected
// candidate, "nan" for a candidate that never received a real score.
// A single writer appends to the file for the life of a study.
type ResultStore struct {
	mu    sync.Mutex
	path  string
	specs []hyperparam.Spec
	file  *os.File
}

// NewResultStore opens (creating if necessary) the study's CSV under
// dir, writing the header only if the file is new so a resumed study
// appends to its existing history.
func NewResultStore(dir, study string, specs []hyperparam.Spec) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, engineerr.New(engineerr.OpPersistResult, study, err)
	}
	path := filepath.Join(dir, study+".csv")
	isNew := true
	if _, err := os.Stat(path); err == nil {
		isNew = false
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, engineerr.New(engineerr.OpPersistResult, study, err)
	}
	s := &ResultStore{path: path, specs: specs, file: f}
	if isNew {
		if err := s.writeHeader(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ResultStore) writeHeader() error {
	names := make([]string, 0, len(s.specs)+1)
	for _, spec := range s.specs {
		names = append(names, spec.Name)
	}
	names = append(names, "score")
	_, err := fmt.Fprintln(s.file, strings.Join(names, ";"))
	return engineerr.New(engineerr.OpPersistResult, s.path, err)
}

// Record appends one candidate's decoded hyperparameter values and
// score. A DNA string that fails to decode is written verbatim in the
// first column as a diagnostic rather than dropped silently.
func (s *ResultStore) Record(c Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := make([]string, 0, len(s.specs)+1)
	if set, err := hyperparam.Decode(s.specs, c.DNA); err == nil {
		for _, spec := range s.specs {
			fields = append(fields, strconv.FormatFloat(set.Values[spec.Name], 'g', -1, 64))
		}
	} else {
		fields = append(fields, c.DNA)
	}

	score := "nan"
	if c.Scored && !math.IsNaN(c.Score) {
		score = strconv.FormatFloat(c.Score, 'g', -1, 64)
	}
	fields = append(fields, score)
	fmt.Fprintln(s.file, strings.Join(fields, ";"))
}

// Close flushes and closes the underlying file.
func (s *ResultStore) Close() error {
	return s.file.Close()
}

// LoadExisting reads a prior study CSV back into a DNA-keyed Candidate
// map, used to warm-start a resumed study so already-scored candidates
// aren't resimulated.
func LoadExisting(dir, study string, specs []hyperparam.Spec) (map[string]Candidate, error) {
	path := filepath.Join(dir, study+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Candidate{}, nil
		}
		return nil, engineerr.New(engineerr.OpPersistResult, path, err)
	}
	defer f.Close()

	out := make(map[string]Candidate)
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) != len(specs)+1 {
			continue
		}

		values := make(hyperparam.Values, len(specs))
		ok := true
		for i, spec := range specs {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				ok = false
				break
			}
			values[spec.Name] = v
		}
		if !ok {
			continue
		}
		dna, err := hyperparam.Encode(specs, values)
		if err != nil {
			continue
		}

		scoreStr := fields[len(fields)-1]
		if scoreStr == "nan" {
			out[dna] = Candidate{DNA: dna, Scored: false}
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}
		out[dna] = Candidate{DNA: dna, Score: score, Scored: true}
	}
	if err := scanner.Err(); err != nil {
		return nil, engineerr.New(engineerr.OpPersistResult, path, err)
	}
	return out, nil
}
