package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aqlanhadi/statex/export"
	"github.com/aqlanhadi/statex/extractor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	extractFormat          string
	extractOutput          string
	extractTransactionOnly bool
	extractStatementOnly   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extracts statement(s)",
	Long: `Extracts a given statement or every statement in a folder.
PDF and .txt files are supported. JSON is written to stdout (or -o);
xlsx and csv write one file per statement.`,
	Run: handler,
}

func handler(cmd *cobra.Command, args []string) {
	target := viper.GetString("target")
	fmt.Fprintln(os.Stderr, "scanning ", target)

	if err := run(target, extractFormat, extractOutput); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(target, format, output string) error {
	switch strings.ToLower(format) {
	case "", "json":
		var out io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer f.Close()
			out = f
		}
		return extractor.ExecuteAgainstPath(target, out, extractTransactionOnly, extractStatementOnly)
	case "xlsx", "csv":
		return exportPath(target, strings.ToLower(format), output)
	default:
		return fmt.Errorf("unsupported format %q (want json, xlsx or csv)", format)
	}
}

// exportPath writes one spreadsheet per statement found at target. For a
// single file, output names the destination file; for a directory, output
// names the destination directory. Either defaults to the input location.
func exportPath(target, format, output string) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	if !info.IsDir() {
		dest := output
		if dest == "" {
			dest = filepath.Join(filepath.Dir(target), exportName(target, format))
		}
		return exportFile(target, format, dest)
	}

	dir := output
	if dir == "" {
		dir = target
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !extractor.IsSupportedFile(e.Name()) {
			continue
		}
		src := filepath.Join(target, e.Name())
		if err := exportFile(src, format, filepath.Join(dir, exportName(src, format))); err != nil {
			log.Printf("\t❌ %v", err)
		}
	}
	return nil
}

func exportFile(src, format, dest string) error {
	statement, err := extractor.ProcessFile(src)
	if err != nil {
		return err
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	if format == "csv" {
		err = export.WriteCSV(f, statement.Transactions)
	} else {
		err = export.WriteWorkbook(f, statement)
	}
	if err != nil {
		return err
	}

	log.Printf("✓ %s -> %s (%d transactions)", src, dest, len(statement.Transactions))
	return nil
}

func exportName(src, format string) string {
	if format == "csv" {
		base := filepath.Base(src)
		return strings.TrimSuffix(base, filepath.Ext(base)) + "_transactions.csv"
	}
	return export.WorkbookName(src)
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("folder", "f", ".", "File or folder in which statex will scan for statements")
	viper.BindPFlag("target", extractCmd.Flags().Lookup("folder"))

	extractCmd.Flags().StringVar(&extractFormat, "format", "json", "Output format: json, xlsx or csv")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output file (or directory for xlsx/csv over a folder)")
	extractCmd.Flags().BoolVar(&extractTransactionOnly, "transaction-only", false, "Only output transactions (json)")
	extractCmd.Flags().BoolVar(&extractStatementOnly, "statement-only", false, "Omit transactions from the output (json)")
}
