// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestReportWrite(t *testing.T) {
	r := New("Flibusta checks")
	r.Add(Entry{ID: "1", Title: "Dune", Outcome: OK})
	r.Add(Entry{ID: "2", Title: "Solaris", Outcome: NotFound})
	r.Add(Entry{ID: "3", Title: "Roadside Picnic", Outcome: FailedToDownload})

	var buf bytes.Buffer
	r.Write(&buf)

	out := buf.String()
	assert.Contains(t, out, "Flibusta checks:\n")
	assert.Contains(t, out, "✅ Dune: ok\n")
	assert.Contains(t, out, "🛑 Solaris: not found\n")
	assert.Contains(t, out, "🛑 Roadside Picnic: failed to download\n")
	assert.Contains(t, out, "Summary: 1 ok, 1 failed to download, 1 not found, 0 scheduled (total: 3)")
}

func TestReportConcurrentAdd(t *testing.T) {
	r := New("x")
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Add(Entry{Outcome: Scheduled})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Counts()[Scheduled])
}

func TestMarker(t *testing.T) {
	assert.Equal(t, "✅", Marker(OK))
	assert.Equal(t, "🕐", Marker(Scheduled))
	assert.Equal(t, "🛑", Marker(Failed))
}

func TestRunWriteFile(t *testing.T) {
	primary := New("LibGen")
	primary.Add(Entry{ID: "1", Title: "Dune", Outcome: OK, Source: "libgen.is", File: "Dune.epub"})
	deferred := New("Flibusta checks")
	deferred.Add(Entry{ID: "2", Title: "Solaris", Outcome: NotFound})

	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	run := NewRun("01J00000000000000000000000", start, start.Add(time.Minute), primary, deferred)

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, run.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Run
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got.Sections, 2)
	assert.Equal(t, "LibGen", got.Sections[0].Name)
	assert.Equal(t, "Dune.epub", got.Sections[0].Entries[0].File)
	assert.Equal(t, NotFound, got.Sections[1].Entries[0].Outcome)
}
