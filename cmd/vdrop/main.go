package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"Cablecalc/internal/calc/engine"
	"Cablecalc/internal/calc/report"
	"Cablecalc/internal/catalog"
	"Cablecalc/internal/logging"
)

var writers = map[string]func(io.Writer, engine.Snapshot) error{
	"csv":     report.WriteCSV,
	"xlsx":    report.WriteXLSX,
	"pdf":     report.WriteTablePDF,
	"details": report.WriteDetailsPDF,
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("vdrop", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		dataDir     = fs.String("data", "./data", "directory with the cable, diversity and fuse CSV files")
		temperature = fs.Float64("temp", engine.DefaultTemperatureC, "ambient temperature, °C")
		grouping    = fs.Float64("grouping", 1.0, "grouping factor")
		format      = fs.String("format", "", "also write a report: csv, xlsx, pdf or details")
		out         = fs.String("o", "", "report file (default stdout)")
		verbose     = fs.Bool("v", false, "log catalog loading")
	)
	var in engine.Input
	fs.Float64Var(&in.CurrentA, "current", 0, "circuit current, A")
	fs.Float64Var(&in.LengthM, "length", 0, "route length, m")
	fs.StringVar(&in.InstallationMethod, "method", engine.DefaultMethod, "installation method")
	fs.StringVar(&in.Material, "material", string(engine.DefaultMaterial), "conductor material: Cu or Al")
	fs.StringVar(&in.Cores, "cores", string(engine.DefaultCores), "core configuration: 1C+E or 3C+E")
	fs.StringVar(&in.Voltage, "voltage", engine.DefaultVoltage, "system voltage: 230V or 415V")
	fs.BoolVar(&in.ADMD, "admd", false, "apply the ADMD factor on three-phase systems")
	fs.IntVar(&in.Houses, "houses", 0, "number of houses")
	fs.Float64Var(&in.KVAPerHouse, "kva-per-house", 0, "load per house, kVA (derives the current)")
	fs.Float64Var(&in.TotalKVA, "total-kva", 0, "total undiversified load, kVA (derives the current)")
	fs.Float64Var(&in.CableSize, "size", 0, "selected cable size, mm²")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	in.TemperatureC = temperature
	in.GroupingFactor = grouping

	log := logging.Noop()
	if *verbose {
		log = logging.New(logging.Config{Level: "debug", Output: stderr})
	}
	tables, err := catalog.LoadDir(ctx, *dataDir, log)
	if err != nil {
		fmt.Fprintln(stderr, "load catalog:", err)
		return 1
	}

	snap, err := engine.Calculate(tables, in)
	if err != nil {
		fmt.Fprintln(stderr, "calculation error:", err)
		return 1
	}
	printSnapshot(stdout, snap)

	if *format == "" {
		return 0
	}
	write, ok := writers[*format]
	if !ok {
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return 2
	}
	dst := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer f.Close()
		dst = f
	}
	if err := write(dst, snap); err != nil {
		fmt.Fprintln(stderr, "report:", err)
		return 1
	}
	return 0
}

func printSnapshot(w io.Writer, s engine.Snapshot) {
	p := s.Params
	fmt.Fprintf(w, "%s %s, %s, %.1f A over %.1f m, %s\n",
		p.Material, p.Cores, s.VoltageOption, p.CurrentA, p.LengthM, p.InstallationMethod)
	if s.TotalKVA > 0 {
		fmt.Fprintf(w, "load: %d houses, diversity %.3f, %.2f kVA\n", s.Houses, s.DiversityFactor, s.DiversifiedKVA)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SIZE\tmV/A/m\tRATING\tDROP V\tDROP %\tSTATUS\t")
	for _, r := range s.Table {
		mark := ""
		if s.Selection != nil && r.Size == s.Selection.Size {
			mark = " *"
		}
		fmt.Fprintf(tw, "%g%s\t%g\t%g\t%.2f\t%.2f\t%s\t\n", r.Size, mark, r.MvPerAm, r.MaxCurrent, r.DropV, r.DropPercent, r.Status)
	}
	tw.Flush()

	if sel := s.Selection; sel != nil {
		fmt.Fprintf(w, "selected %g mm²: %.2f V (%.2f%%) %s, %s\n",
			sel.Size, sel.DropV, sel.DropPercent, sel.Status, sel.Combined)
	}
}
