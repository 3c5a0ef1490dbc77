// xla_kernelmeta inspects kernel-call metadata blobs, the zlib-compressed,
// proto-encoded opaque payloads GPU custom calls carry. For each blob it
// reports the kernel name and the compressed/uncompressed/metadata sizes,
// and can hex-dump the serialized metadata.
//
// Usage:
//
//	xla_kernelmeta [flags] <blob files...>
//	xla_kernelmeta -scan <dir>
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/Bihan/xla/internal/workerspool"
	"github.com/Bihan/xla/triton"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagScan = flag.String("scan", "", "Directory to scan: every regular file in it is inspected as a kernel-call blob. "+
		"Mutually exclusive with passing blob files as arguments.")
	flagMetadata    = flag.Bool("metadata", false, "Hex-dump the serialized metadata of each blob after the report table.")
	flagParallelism = flag.Int("parallelism", runtime.NumCPU(),
		"Number of blobs inspected concurrently during -scan. 0 inspects them one at a time, -1 removes the bound.")
)

func main() {
	flag.Parse()

	files := flag.Args()
	if *flagScan != "" && len(files) > 0 {
		klog.Errorf("Pass either -scan or blob files, not both. See 'xla_kernelmeta -help'.")
		os.Exit(1)
	}

	var reports []blobReport
	if *flagScan != "" {
		reports = scanDir(*flagScan)
	} else {
		for _, file := range files {
			reports = append(reports, inspect(file))
		}
	}
	if len(reports) == 0 {
		klog.Errorf("No kernel-call blobs to inspect. See 'xla_kernelmeta -help'.")
		os.Exit(1)
	}

	failures := render(reports)
	if failures > 0 {
		os.Exit(1)
	}
}

// blobReport is the inspection result of one blob file.
type blobReport struct {
	file         string
	call         *triton.KernelCall
	compressed   int
	uncompressed int
	err          error
}

func inspect(file string) blobReport {
	report := blobReport{file: file}
	data, err := os.ReadFile(file)
	if err != nil {
		report.err = err
		return report
	}
	report.compressed = len(data)
	serialized, err := triton.Uncompress(data)
	if err != nil {
		report.err = err
		return report
	}
	report.uncompressed = len(serialized)
	report.call, report.err = triton.ParseKernelCall(data)
	return report
}

func scanDir(dir string) []blobReport {
	entries := must.M1(os.ReadDir(dir))
	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	pool := workerspool.New()
	pool.SetMaxParallelism(*flagParallelism)
	bar := progressbar.Default(int64(len(files)), "scanning "+dir)
	reports := make([]blobReport, len(files))
	var wg sync.WaitGroup
	for ii, file := range files {
		wg.Add(1)
		pool.WaitToStart(func() {
			defer wg.Done()
			reports[ii] = inspect(file)
			_ = bar.Add(1)
		})
	}
	wg.Wait()
	_ = bar.Finish()
	return reports
}

// render prints the report table (and metadata dumps, if requested) and
// returns how many blobs failed to decode.
func render(reports []blobReport) (failures int) {
	fmt.Println(titleStyle.Render("Kernel Calls"))
	table := newReportTable(lipgloss.Left, lipgloss.Left, lipgloss.Right, lipgloss.Right, lipgloss.Right)
	table.Table.Headers("Blob", "Kernel", "Compressed", "Uncompressed", "Metadata")
	for _, report := range reports {
		if report.err != nil {
			failures++
			klog.Errorf("%s: %v", report.file, report.err)
			table.Row(true, filepath.Base(report.file), report.err.Error(), "", "", "")
			continue
		}
		table.Row(false,
			filepath.Base(report.file),
			report.call.Name,
			humanize.Bytes(uint64(report.compressed)),
			humanize.Bytes(uint64(report.uncompressed)),
			humanize.Bytes(uint64(len(report.call.Metadata))),
		)
	}
	fmt.Println(table.Table.Render())

	if *flagMetadata {
		for _, report := range reports {
			if report.err != nil || len(report.call.Metadata) == 0 {
				continue
			}
			title := report.call.Name
			if title == "" {
				title = filepath.Base(report.file)
			}
			fmt.Println(titleStyle.Render("Metadata: " + title))
			fmt.Print(hex.Dump(report.call.Metadata))
		}
	}
	return failures
}
