package recordstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestDrainAndPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citizens.csv")

	sink := &Sink{}
	sink.Add(Record{CI: "12345672", GivenNames: "María, José", Surnames: "Pérez", BirthDate: "01/02/1990"})
	sink.Add(Record{CI: "41234563", GivenNames: "Ana", Surnames: "Rodríguez", BirthDate: "30/11/1985"})

	n, err := sink.DrainAndPersist(path)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 0, sink.Len())

	rows := readRows(t, path)
	require.Equal(t, [][]string{
		{"CI", "Nombres", "Apellidos", "Nacimiento"},
		{"12345672", "María, José", "Pérez", "01/02/1990"},
		{"41234563", "Ana", "Rodríguez", "30/11/1985"},
	}, rows)
}

func TestDrainIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citizens.csv")

	sink := &Sink{}
	sink.Add(Record{CI: "12345672"})

	n, err := sink.DrainAndPersist(path)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// nothing queued, nothing appended, no error
	n, err = sink.DrainAndPersist(path)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	require.Len(t, readRows(t, path), 2)
}

func TestHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citizens.csv")

	sink := &Sink{}
	sink.Add(Record{CI: "12345672"})
	_, err := sink.DrainAndPersist(path)
	require.NoError(t, err)

	// a later run appends without repeating the header
	sink.Add(Record{CI: "41234563"})
	_, err = sink.DrainAndPersist(path)
	require.NoError(t, err)

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	require.Equal(t, "CI", rows[0][0])
	require.Equal(t, "12345672", rows[1][0])
	require.Equal(t, "41234563", rows[2][0])
}

func TestConcurrentAdd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citizens.csv")
	sink := &Sink{}

	const workers = 10
	const perWorker = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				sink.Add(Record{CI: fmt.Sprintf("%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()

	n, err := sink.DrainAndPersist(path)
	require.NoError(t, err)
	require.Equal(t, workers*perWorker, n)

	rows := readRows(t, path)
	require.Len(t, rows, workers*perWorker+1)

	seen := map[string]bool{}
	for _, row := range rows[1:] {
		require.False(t, seen[row[0]], "duplicate row %s", row[0])
		seen[row[0]] = true
	}
}
