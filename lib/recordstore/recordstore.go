// Package recordstore accumulates extracted records from
// concurrent workers and appends them to a CSV store.
package recordstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

// Record is one row of the durable store.
type Record struct {
	CI         string
	GivenNames string
	Surnames   string
	BirthDate  string
}

var header = []string{"CI", "Nombres", "Apellidos", "Nacimiento"}

// Sink is a thread-safe queue of records pending persistence.
// Add may be called concurrently from any worker; DrainAndPersist
// is called once per run after every worker has joined.
type Sink struct {
	mu    sync.Mutex
	queue []Record
}

func (s *Sink) Add(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, r)
}

func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// DrainAndPersist removes every queued record and appends it to
// the CSV file at path, writing the header row first if the file
// does not exist yet. Prior content is never overwritten.
// Draining an empty sink appends nothing and is not an error.
func (s *Sink) DrainAndPersist(path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drained := s.queue
	s.queue = nil
	if len(drained) == 0 {
		return 0, nil
	}

	_, err := os.Stat(path)
	exists := err == nil

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists {
		err = w.Write(header)
		if err != nil {
			return 0, err
		}
	}
	for _, r := range drained {
		err = w.Write([]string{r.CI, r.GivenNames, r.Surnames, r.BirthDate})
		if err != nil {
			return 0, err
		}
	}

	w.Flush()
	err = w.Error()
	if err != nil {
		return 0, fmt.Errorf("flush record store %s: %w", path, err)
	}
	return len(drained), nil
}
