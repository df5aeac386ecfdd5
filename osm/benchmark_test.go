package osm

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/paulmach/osm/osmpbf"
	"github.com/thomersch/gosmparse"
)

const benchmarkWorkers = 4

// benchmarkFile returns the PBF extract to benchmark with, set OSM_BENCHMARK_PBF to use another file.
func benchmarkFile(b *testing.B) *os.File {
	filename := os.Getenv("OSM_BENCHMARK_PBF")
	if filename == "" {
		filename = "../examples/groningen/groningen.osm.pbf"
	}
	f, err := os.Open(filename)
	if err != nil {
		b.Skip("no PBF file to benchmark:", err)
	}
	b.Cleanup(func() { f.Close() })
	return f
}

type gosmparseHandler struct{}

func (d *gosmparseHandler) ReadNode(n gosmparse.Node)         {}
func (d *gosmparseHandler) ReadWay(w gosmparse.Way)           {}
func (d *gosmparseHandler) ReadRelation(r gosmparse.Relation) {}

func BenchmarkPaulmach(b *testing.B) {
	f := benchmarkFile(b)
	b.ReportAllocs()
	for b.Loop() {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			b.Fatal(err)
		}
		scanner := osmpbf.New(context.Background(), f, benchmarkWorkers)
		for scanner.Scan() {
			_ = scanner.Object()
		}
		if err := scanner.Err(); err != nil {
			b.Fatal(err)
		}
		scanner.Close()
	}
}

func BenchmarkThomersch(b *testing.B) {
	f := benchmarkFile(b)
	b.ReportAllocs()
	for b.Loop() {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			b.Fatal(err)
		}
		dec := gosmparse.NewDecoder(f)
		dec.Workers = benchmarkWorkers
		if err := dec.Parse(&gosmparseHandler{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPBFParser(b *testing.B) {
	f := benchmarkFile(b)
	nodeFunc := func(node Node) {}
	wayFunc := func(way Way) {}
	relationFunc := func(relation Relation) {}

	b.ReportAllocs()
	for b.Loop() {
		z := NewPBFParser(f)
		z.Workers = benchmarkWorkers
		if err := z.Parse(context.Background(), nodeFunc, wayFunc, relationFunc); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPBFParserSkipping(b *testing.B) {
	f := benchmarkFile(b)
	b.ReportAllocs()
	for b.Loop() {
		z := NewPBFParser(f)
		z.Workers = benchmarkWorkers
		if err := z.Parse(context.Background(), nil, nil, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLoadPBF(b *testing.B) {
	f := benchmarkFile(b)
	b.ReportAllocs()
	for b.Loop() {
		if _, err := LoadPBF(context.Background(), f); err != nil {
			b.Fatal(err)
		}
	}
}
