// Command evaluate runs a dense network over an IDX dataset and reports how
// many samples it classifies correctly.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Brownie44l1/digit-api/internal/dataset"
	"github.com/Brownie44l1/digit-api/internal/network"
)

var (
	networkFile = flag.String("network", "models/network.json", "Network JSON file")
	imagesFile  = flag.String("images", "", "IDX image file")
	labelsFile  = flag.String("labels", "", "IDX label file")
	showWrong   = flag.Int("wrong", 0, "Print this many misclassified sample indices")
)

func main() {
	flag.Parse()

	if *imagesFile == "" || *labelsFile == "" {
		fmt.Fprintln(os.Stderr, "-images and -labels are required")
		os.Exit(2)
	}

	net, _, err := network.LoadFile(*networkFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading network: %v\n", err)
		os.Exit(1)
	}
	samples, err := dataset.LoadIDX(*imagesFile, *labelsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading dataset: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Network %v, %d samples\n", net.Structure(), samples.Len())

	r, err := evaluate(net, samples, *showWrong)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, i := range r.wrong {
		fmt.Printf("  misclassified: %d\n", i)
	}
	fmt.Printf("[infer success rate] %.2f%% (%d of %d)\n", r.rate(), r.correct, r.total)
}

type report struct {
	correct, total int
	wrong          []int
}

func (r report) rate() float64 {
	if r.total == 0 {
		return 0
	}
	return float64(r.correct) * 100 / float64(r.total)
}

// evaluate scores every sample and keeps the first keepWrong misses.
func evaluate(net *network.Descriptor, samples *dataset.Dataset, keepWrong int) (report, error) {
	r := report{total: samples.Len()}
	for i := 0; i < samples.Len(); i++ {
		s, err := samples.Sample(i)
		if err != nil {
			return r, err
		}
		out, err := network.Forward(s.Input, net)
		if err != nil {
			return r, fmt.Errorf("sample %d: %w", i, err)
		}
		if network.Argmax(out) == s.Label {
			r.correct++
		} else if len(r.wrong) < keepWrong {
			r.wrong = append(r.wrong, i)
		}
	}
	return r, nil
}
